// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package commandstream defines the command stream run by the NPU firmware: a sequence of top level
// commands, the main one being a Cascade of Agents, each one programming a stage of the hardware pipeline.
//
// The command stream has a binary form, consumed by the firmware, and an equivalent XML form used for
// debugging and testing. Both can be converted to each other without loss.
package commandstream

import (
	"fmt"
)

// Version of the command stream format written by this package.
const (
	VersionMajor = 4
	VersionMinor = 1
	VersionPatch = 0
)

// Opcode identifies a top level command.
type Opcode uint32

//go:generate go tool enumer -type=Opcode -trimprefix=Opcode -transform=snake-upper -text -output=gen_opcode_enumer.go stream.go

const (
	OpcodeFence Opcode = iota
	OpcodeDumpDram
	OpcodeDumpSram
	OpcodeCascade
)

// StreamCommand is a top level command. It is implemented by the pointer types *Fence, *DumpDram, *DumpSram
// and *Cascade.
type StreamCommand interface {
	Opcode() Opcode
}

// MaxFilenameLength is the maximum length of the file names of dump commands.
const MaxFilenameLength = 127

// Fence waits for all the previous commands to complete.
type Fence struct{}

// Opcode implements StreamCommand.
func (*Fence) Opcode() Opcode { return OpcodeFence }

// DumpDram writes the contents of a DRAM buffer to a file, on platforms that support it.
type DumpDram struct {
	DramBufferID uint32 `xml:"DRAM_BUFFER_ID"`
	Filename     string `xml:"FILENAME"`
}

// Opcode implements StreamCommand.
func (*DumpDram) Opcode() Opcode { return OpcodeDumpDram }

// DumpSram writes the contents of the SRAM to files starting with Prefix, on platforms that support it.
type DumpSram struct {
	Prefix string `xml:"PREFIX"`
}

// Opcode implements StreamCommand.
func (*DumpSram) Opcode() Opcode { return OpcodeDumpSram }

// Cascade is a sequence of agents run in a pipelined fashion, along with the low level commands for each
// of the hardware queues.
type Cascade struct {
	Agents        []Agent
	DmaRdCommands []Command
	DmaWrCommands []Command
	MceCommands   []Command
	PleCommands   []Command
}

// Opcode implements StreamCommand.
func (*Cascade) Opcode() Opcode { return OpcodeCascade }

// CommandStream is a versioned sequence of top level commands.
type CommandStream struct {
	VersionMajor, VersionMinor, VersionPatch uint32
	Commands                                 []StreamCommand
}

// New returns an empty CommandStream with the current version.
func New() *CommandStream {
	return &CommandStream{VersionMajor: VersionMajor, VersionMinor: VersionMinor, VersionPatch: VersionPatch}
}

// Add appends a top level command.
func (cs *CommandStream) Add(cmd StreamCommand) *CommandStream {
	cs.Commands = append(cs.Commands, cmd)
	return cs
}

// Cascades returns the cascades of the stream, in order.
func (cs *CommandStream) Cascades() []*Cascade {
	var cascades []*Cascade
	for _, cmd := range cs.Commands {
		if c, ok := cmd.(*Cascade); ok {
			cascades = append(cascades, c)
		}
	}
	return cascades
}

// NumAgents returns the total number of agents in all the cascades.
func (cs *CommandStream) NumAgents() int {
	var n int
	for _, c := range cs.Cascades() {
		n += len(c.Agents)
	}
	return n
}

// String returns a short summary.
func (cs *CommandStream) String() string {
	return fmt.Sprintf("CommandStream(v%d.%d.%d, %d commands, %d agents)", cs.VersionMajor, cs.VersionMinor,
		cs.VersionPatch, len(cs.Commands), cs.NumAgents())
}
