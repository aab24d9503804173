package config

import "carbonmarket/native/common"

// Pauses lists the modules an operator has halted. A paused module rejects
// every mutating call with common.ErrModulePaused; reads stay available.
type Pauses struct {
	Marketplace bool `toml:"Marketplace" yaml:"marketplace"`
}

// PauseView exposes the configured pauses to the module guard.
func (p Pauses) PauseView() common.PauseView {
	return common.StaticPauses{
		"marketplace": p.Marketplace,
	}
}
