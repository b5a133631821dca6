//go:build !linux

package main

import "fmt"

// PipeRadio is only available on Linux, where the capture devices live.
type PipeRadio struct{}

func NewPipeRadio(cfg *Config, devicePath string) (*PipeRadio, error) {
	return nil, fmt.Errorf("pipe radio backend is not supported on this platform")
}

func (p *PipeRadio) RxSymbol(ant int, iq []int16) (uint32, uint32, bool) { return 0, 0, false }
func (p *PipeRadio) ClientLoop(i int)                                    {}
func (p *PipeRadio) Beamsweep()                                          {}
func (p *PipeRadio) Close() error                                        { return nil }
