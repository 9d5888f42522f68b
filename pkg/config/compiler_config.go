package config

import "errors"

// CompilerConfiguration contains default settings for compilation commands,
// command line flags take precedence over them.
type CompilerConfiguration struct {
	// DisablePasses turns off the merge and multiply-loop passes.
	DisablePasses bool `yaml:"DisablePasses"`
	DumpIndent    int  `yaml:"DumpIndent"`
	DumpUnsigned  bool `yaml:"DumpUnsigned"`
	// TypedPointers makes LLVM output use i8* instead of opaque ptr.
	TypedPointers bool `yaml:"TypedPointers"`
}

// Validate checks CompilerConfiguration for internal consistency.
func (c CompilerConfiguration) Validate() error {
	if c.DumpIndent < 0 {
		return errors.New("negative DumpIndent")
	}
	return nil
}
