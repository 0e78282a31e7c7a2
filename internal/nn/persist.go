package nn

import "github.com/tencor-ml/tencor/internal/serialization"

// Save writes the model parameters to a .tncr file.
func (s *Sequential) Save(path string, metadata map[string]string) error {
	return serialization.SaveModel(path, s, serialization.SaveOptions{
		ModelType: ModelType,
		Metadata:  metadata,
	})
}

// Load restores parameters from a .tncr file written for a model with the
// same layer names and sizes.
func (s *Sequential) Load(path string) (*serialization.Header, error) {
	return serialization.LoadModel(path, s)
}
