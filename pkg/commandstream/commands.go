// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandstream

import (
	"strconv"

	"github.com/pkg/errors"
)

// CommandType identifies a low level command run by the firmware on behalf of an agent.
type CommandType uint32

//go:generate go tool enumer -type=CommandType -trimprefix=CommandType -text -output=gen_commandtype_enumer.go commands.go

const (
	CommandTypeWaitForCounter CommandType = iota
	CommandTypeLoadIfmStripe
	CommandTypeLoadWgtStripe
	CommandTypeProgramMceStripe
	CommandTypeConfigMceif
	CommandTypeStartMceStripe
	CommandTypeLoadPleCodeIntoPleSram
	CommandTypeStartPleStripe
	CommandTypeStoreOfmStripe
)

// CounterName is one of the hardware progress counters a command can wait for.
type CounterName uint32

//go:generate go tool enumer -type=CounterName -trimprefix=CounterName -text -output=gen_countername_enumer.go commands.go

const (
	CounterNameDmaRd CounterName = iota
	CounterNameDmaWr
	CounterNameMceif
	CounterNameMceStripe
	CounterNamePleCodeLoadedIntoPleSram
	CounterNamePleStripe
)

// Hex32 is a register value, written in hexadecimal in XML.
type Hex32 uint32

// MarshalText implements encoding.TextMarshaler.
func (h Hex32) MarshalText() ([]byte, error) {
	return []byte("0x" + strconv.FormatUint(uint64(h), 16)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Decimal values are accepted too.
func (h *Hex32) UnmarshalText(text []byte) error {
	v, err := strconv.ParseUint(string(text), 0, 32)
	if err != nil {
		return errors.Wrapf(err, "invalid register value %q", text)
	}
	*h = Hex32(v)
	return nil
}

// Command is implemented by the pointer types *WaitForCounterCommand, *DmaCommand,
// *ProgramMceStripeCommand, *ConfigMceifCommand, *StartMceStripeCommand, *LoadPleCodeIntoPleSramCommand
// and *StartPleStripeCommand.
type Command interface {
	CommandType() CommandType
}

// WaitForCounterCommand blocks a command queue until a counter reaches a value.
type WaitForCounterCommand struct {
	CounterName  CounterName `xml:"COUNTER_NAME"`
	CounterValue uint32      `xml:"COUNTER_VALUE"`
}

// CommandType implements Command.
func (*WaitForCounterCommand) CommandType() CommandType { return CommandTypeWaitForCounter }

// DmaTransfer holds the registers of one DMA transfer.
type DmaTransfer struct {
	AgentID       uint32 `xml:"AGENT_ID"`
	DramOffset    Hex32  `xml:"DRAM_OFFSET"`
	SramAddr      Hex32  `xml:"SRAM_ADDR"`
	DmaSramStride Hex32  `xml:"DMA_SRAM_STRIDE"`
	DmaStride0    Hex32  `xml:"DMA_STRIDE0"`
	DmaStride3    Hex32  `xml:"DMA_STRIDE3"`
	DmaChannels   Hex32  `xml:"DMA_CHANNELS"`
	DmaEmcs       Hex32  `xml:"DMA_EMCS"`
	DmaTotalBytes Hex32  `xml:"DMA_TOTAL_BYTES"`
	DmaCmd        Hex32  `xml:"DMA_CMD"`
}

// DmaCommand loads an IFM or weight stripe, or stores an OFM stripe.
type DmaCommand struct {
	// Type is one of CommandTypeLoadIfmStripe, CommandTypeLoadWgtStripe or CommandTypeStoreOfmStripe.
	Type CommandType `xml:"TYPE"`
	DmaTransfer
}

// CommandType implements Command.
func (c *DmaCommand) CommandType() CommandType { return c.Type }

// isDmaCommandType returns whether commands of the type are DmaCommands.
func isDmaCommandType(t CommandType) bool {
	return t == CommandTypeLoadIfmStripe || t == CommandTypeLoadWgtStripe || t == CommandTypeStoreOfmStripe
}

// NumCes and NumOgs are the number of compute engines and output (or input) groups per engine that
// register arrays are sized for.
const (
	NumCes = 8
	NumOgs = 4
)

// ProgramMceStripeCommand programs the MCE registers for one stripe.
type ProgramMceStripeCommand struct {
	AgentID                   uint32
	MulEnable                 [NumCes][NumOgs]Hex32
	IfmRowStride              Hex32
	IfmConfig1                Hex32
	IfmPad                    [4][NumOgs]Hex32
	WideKernelOffset          Hex32
	IfmTopSlots               Hex32
	IfmMidSlots               Hex32
	IfmBottomSlots            Hex32
	IfmSlotPadConfig          Hex32
	OfmStripeSize             Hex32
	OfmConfig                 Hex32
	WeightBaseAddr            [NumOgs]Hex32
	IfmConfig2                [NumCes][NumOgs]Hex32
	NumBlocksProgrammedForMce uint32
}

// CommandType implements Command.
func (*ProgramMceStripeCommand) CommandType() CommandType { return CommandTypeProgramMceStripe }

// ConfigMceifCommand configures the interface between the MCE and the PLE.
type ConfigMceifCommand struct {
	AgentID uint32 `xml:"AGENT_ID"`
}

// CommandType implements Command.
func (*ConfigMceifCommand) CommandType() CommandType { return CommandTypeConfigMceif }

// StartMceStripeCommand starts the MCE on the programmed stripe.
type StartMceStripeCommand struct {
	AgentID   uint32 `xml:"AGENT_ID"`
	CeEnables uint32 `xml:"CE_ENABLES"`
}

// CommandType implements Command.
func (*StartMceStripeCommand) CommandType() CommandType { return CommandTypeStartMceStripe }

// LoadPleCodeIntoPleSramCommand copies the kernel of a PLE loader agent from SRAM into the PLE.
type LoadPleCodeIntoPleSramCommand struct {
	AgentID uint32 `xml:"AGENT_ID"`
}

// CommandType implements Command.
func (*LoadPleCodeIntoPleSramCommand) CommandType() CommandType { return CommandTypeLoadPleCodeIntoPleSram }

// StartPleStripeCommand starts the PLE on one stripe, passing it its scratch registers.
type StartPleStripeCommand struct {
	AgentID uint32
	Scratch [8]Hex32
}

// CommandType implements Command.
func (*StartPleStripeCommand) CommandType() CommandType { return CommandTypeStartPleStripe }

// newCommand returns an empty command of the given type.
func newCommand(t CommandType) (Command, error) {
	switch {
	case t == CommandTypeWaitForCounter:
		return &WaitForCounterCommand{}, nil
	case isDmaCommandType(t):
		return &DmaCommand{Type: t}, nil
	case t == CommandTypeProgramMceStripe:
		return &ProgramMceStripeCommand{}, nil
	case t == CommandTypeConfigMceif:
		return &ConfigMceifCommand{}, nil
	case t == CommandTypeStartMceStripe:
		return &StartMceStripeCommand{}, nil
	case t == CommandTypeLoadPleCodeIntoPleSram:
		return &LoadPleCodeIntoPleSramCommand{}, nil
	case t == CommandTypeStartPleStripe:
		return &StartPleStripeCommand{}, nil
	}
	return nil, errors.Errorf("unknown command type %s", t)
}
