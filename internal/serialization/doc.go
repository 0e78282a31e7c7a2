// Package serialization implements the .tncr format for saving and loading
// model parameters.
//
//	Format Structure:
//	  [4 bytes: Magic "TNCR"]
//	  [4 bytes: Version (uint32 LE)]
//	  [4 bytes: Flags (uint32 LE)]
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON metadata]
//	  [32 bytes: SHA-256 of the data section]
//	  [Padding to a 64-byte boundary]
//	  [Tensor data: float64 LE, row-major, tensors sorted by name]
//
// The JSON header records every tensor's name, shape, offset and size, so a
// reader never has to infer shapes from the data.
//
// Example usage:
//
//	// Save a model
//	err := serialization.SaveModel("xor.tncr", model, serialization.SaveOptions{
//	    ModelType: "Sequential",
//	})
//
//	// Load it into a model with the same layer names and sizes
//	header, err := serialization.LoadModel("xor.tncr", model)
package serialization
