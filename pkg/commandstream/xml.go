// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandstream

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// xmlHeader starts all the XML documents written by this package.
const xmlHeader = `<?xml version="1.0" encoding="utf-8"?>` + "\n"

func startElement(name string) xml.StartElement {
	return xml.StartElement{Name: xml.Name{Local: name}}
}

type streamXML struct {
	XMLName      xml.Name           `xml:"STREAM"`
	VersionMajor uint32             `xml:"VERSION_MAJOR,attr"`
	VersionMinor uint32             `xml:"VERSION_MINOR,attr"`
	VersionPatch uint32             `xml:"VERSION_PATCH,attr"`
	Commands     []streamCommandXML `xml:",any"`
}

// WriteXML writes the XML form of the command stream.
func (cs *CommandStream) WriteXML(w io.Writer) error {
	x := streamXML{VersionMajor: cs.VersionMajor, VersionMinor: cs.VersionMinor, VersionPatch: cs.VersionPatch}
	for ii, cmd := range cs.Commands {
		if cmd == nil {
			return errors.Errorf("command #%d is nil", ii)
		}
		x.Commands = append(x.Commands, streamCommandXML{cmd})
	}
	return writeXMLDocument(w, &x, "    ")
}

func writeXMLDocument(w io.Writer, v any, indent string) error {
	if _, err := io.WriteString(w, xmlHeader); err != nil {
		return errors.Wrap(err, "writing XML")
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", indent)
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "writing XML")
	}
	_, err := io.WriteString(w, "\n")
	return errors.Wrap(err, "writing XML")
}

// ParseXML reads the XML form of a command stream.
func ParseXML(r io.Reader) (*CommandStream, error) {
	var x streamXML
	if err := xml.NewDecoder(r).Decode(&x); err != nil {
		return nil, errors.Wrap(err, "parsing command stream XML")
	}
	cs := &CommandStream{VersionMajor: x.VersionMajor, VersionMinor: x.VersionMinor, VersionPatch: x.VersionPatch}
	for _, cmd := range x.Commands {
		cs.Commands = append(cs.Commands, cmd.StreamCommand)
	}
	return cs, nil
}

// streamCommandXML is a top level command, named by its opcode.
type streamCommandXML struct {
	StreamCommand
}

// MarshalXML implements xml.Marshaler.
func (c streamCommandXML) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	start := startElement(c.Opcode().String())
	switch cmd := c.StreamCommand.(type) {
	case *Fence:
		return e.EncodeElement(struct{}{}, start)
	case *Cascade:
		return e.EncodeElement(newCascadeXML(cmd), start)
	default:
		return e.EncodeElement(cmd, start)
	}
}

// UnmarshalXML implements xml.Unmarshaler.
func (c *streamCommandXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	opcode, err := OpcodeString(start.Name.Local)
	if err != nil {
		return errors.Errorf("unknown command <%s>", start.Name.Local)
	}
	switch opcode {
	case OpcodeFence:
		c.StreamCommand = &Fence{}
		return d.Skip()
	case OpcodeDumpDram:
		cmd := &DumpDram{}
		c.StreamCommand = cmd
		return d.DecodeElement(cmd, &start)
	case OpcodeDumpSram:
		cmd := &DumpSram{}
		c.StreamCommand = cmd
		return d.DecodeElement(cmd, &start)
	case OpcodeCascade:
		var x cascadeXML
		if err := d.DecodeElement(&x, &start); err != nil {
			return err
		}
		cascade, err := x.cascade()
		if err != nil {
			return err
		}
		c.StreamCommand = cascade
		return nil
	}
	return errors.Errorf("unsupported command <%s>", start.Name.Local)
}

type cascadeXML struct {
	Agents        []agentXML     `xml:"AGENTS>AGENT"`
	DmaRdCommands commandListXML `xml:"DMA_RD_COMMANDS"`
	DmaWrCommands commandListXML `xml:"DMA_WR_COMMANDS"`
	MceCommands   commandListXML `xml:"MCE_COMMANDS"`
	PleCommands   commandListXML `xml:"PLE_COMMANDS"`
}

type commandListXML struct {
	Commands []commandXML `xml:",any"`
}

func newCommandListXML(list []Command) commandListXML {
	var x commandListXML
	for _, cmd := range list {
		x.Commands = append(x.Commands, commandXML{cmd})
	}
	return x
}

func (x commandListXML) commands() []Command {
	var list []Command
	for _, cmd := range x.Commands {
		list = append(list, cmd.Command)
	}
	return list
}

func newCascadeXML(c *Cascade) *cascadeXML {
	x := &cascadeXML{
		DmaRdCommands: newCommandListXML(c.DmaRdCommands),
		DmaWrCommands: newCommandListXML(c.DmaWrCommands),
		MceCommands:   newCommandListXML(c.MceCommands),
		PleCommands:   newCommandListXML(c.PleCommands),
	}
	for ii := range c.Agents {
		x.Agents = append(x.Agents, newAgentXML(&c.Agents[ii]))
	}
	return x
}

func (x *cascadeXML) cascade() (*Cascade, error) {
	c := &Cascade{
		DmaRdCommands: x.DmaRdCommands.commands(),
		DmaWrCommands: x.DmaWrCommands.commands(),
		MceCommands:   x.MceCommands.commands(),
		PleCommands:   x.PleCommands.commands(),
	}
	for ii := range x.Agents {
		agent, err := x.Agents[ii].agent()
		if err != nil {
			return nil, errors.WithMessagef(err, "agent #%d", ii)
		}
		c.Agents = append(c.Agents, agent)
	}
	return c, nil
}

// agentXML has exactly one of the data fields set.
type agentXML struct {
	IfmStreamer  *IfmS               `xml:"IFM_STREAMER"`
	WgtStreamer  *WgtS               `xml:"WGT_STREAMER"`
	MceScheduler *MceS               `xml:"MCE_SCHEDULER"`
	PleLoader    *PleL               `xml:"PLE_LOADER"`
	PleScheduler *PleS               `xml:"PLE_SCHEDULER"`
	OfmStreamer  *OfmS               `xml:"OFM_STREAMER"`
	Info         AgentDependencyInfo `xml:"INFO"`
}

func newAgentXML(a *Agent) agentXML {
	x := agentXML{Info: a.Info}
	switch data := a.Data.(type) {
	case *IfmS:
		x.IfmStreamer = data
	case *WgtS:
		x.WgtStreamer = data
	case *MceS:
		x.MceScheduler = data
	case *PleL:
		x.PleLoader = data
	case *PleS:
		x.PleScheduler = data
	case *OfmS:
		x.OfmStreamer = data
	}
	return x
}

func (x *agentXML) agent() (Agent, error) {
	var all []AgentData
	for _, data := range []AgentData{x.IfmStreamer, x.WgtStreamer, x.MceScheduler, x.PleLoader, x.PleScheduler,
		x.OfmStreamer} {
		if !isNilAgentData(data) {
			all = append(all, data)
		}
	}
	if len(all) != 1 {
		return Agent{}, errors.Errorf("agent must have exactly one of %s, got %d",
			strings.Join(AgentTypeStrings(), ", "), len(all))
	}
	return Agent{Data: all[0], Info: x.Info}, nil
}

// isNilAgentData returns whether data is nil or a typed nil pointer.
func isNilAgentData(data AgentData) bool {
	switch d := data.(type) {
	case *IfmS:
		return d == nil
	case *WgtS:
		return d == nil
	case *MceS:
		return d == nil
	case *PleL:
		return d == nil
	case *PleS:
		return d == nil
	case *OfmS:
		return d == nil
	}
	return data == nil
}

type dependencyInfoXML struct {
	NumStripesTotal uint16       `xml:"NUM_STRIPES_TOTAL"`
	Schedule        []Dependency `xml:"SCHEDULE_DEPENDENCIES>DEPENDENCY"`
	Read            []Dependency `xml:"READ_DEPENDENCIES>DEPENDENCY"`
	Write           []Dependency `xml:"WRITE_DEPENDENCIES>DEPENDENCY"`
}

// MarshalXML implements xml.Marshaler.
func (info AgentDependencyInfo) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return e.EncodeElement(dependencyInfoXML{
		NumStripesTotal: info.NumStripesTotal,
		Schedule:        info.ScheduleDependencies[:],
		Read:            info.ReadDependencies[:],
		Write:           info.WriteDependencies[:],
	}, start)
}

// UnmarshalXML implements xml.Unmarshaler.
func (info *AgentDependencyInfo) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var x dependencyInfoXML
	if err := d.DecodeElement(&x, &start); err != nil {
		return err
	}
	if len(x.Schedule) != len(info.ScheduleDependencies) || len(x.Read) != len(info.ReadDependencies) ||
		len(x.Write) != len(info.WriteDependencies) {
		return errors.Errorf("<%s> must have %d schedule, %d read and %d write dependencies, got %d, %d and %d",
			start.Name.Local, len(info.ScheduleDependencies), len(info.ReadDependencies),
			len(info.WriteDependencies), len(x.Schedule), len(x.Read), len(x.Write))
	}
	info.NumStripesTotal = x.NumStripesTotal
	copy(info.ScheduleDependencies[:], x.Schedule)
	copy(info.ReadDependencies[:], x.Read)
	copy(info.WriteDependencies[:], x.Write)
	return nil
}

// commandXML is a cascade command, named by its Go type.
type commandXML struct {
	Command
}

// MarshalXML implements xml.Marshaler.
func (c commandXML) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	name, err := commandElementName(c.Command)
	if err != nil {
		return err
	}
	return e.EncodeElement(c.Command, startElement(name))
}

func commandElementName(cmd Command) (string, error) {
	switch cmd.(type) {
	case *WaitForCounterCommand:
		return "WAIT_FOR_COUNTER_COMMAND", nil
	case *DmaCommand:
		return "DMA_COMMAND", nil
	case *ProgramMceStripeCommand:
		return "PROGRAM_MCE_STRIPE_COMMAND", nil
	case *ConfigMceifCommand:
		return "CONFIG_MCEIF_COMMAND", nil
	case *StartMceStripeCommand:
		return "START_MCE_STRIPE_COMMAND", nil
	case *LoadPleCodeIntoPleSramCommand:
		return "LOAD_PLE_CODE_INTO_PLE_SRAM_COMMAND", nil
	case *StartPleStripeCommand:
		return "START_PLE_STRIPE_COMMAND", nil
	}
	return "", errors.Errorf("unsupported command type %T", cmd)
}

// UnmarshalXML implements xml.Unmarshaler.
func (c *commandXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var cmd Command
	switch start.Name.Local {
	case "WAIT_FOR_COUNTER_COMMAND":
		cmd = &WaitForCounterCommand{}
	case "DMA_COMMAND":
		cmd = &DmaCommand{}
	case "PROGRAM_MCE_STRIPE_COMMAND":
		cmd = &ProgramMceStripeCommand{}
	case "CONFIG_MCEIF_COMMAND":
		cmd = &ConfigMceifCommand{}
	case "START_MCE_STRIPE_COMMAND":
		cmd = &StartMceStripeCommand{}
	case "LOAD_PLE_CODE_INTO_PLE_SRAM_COMMAND":
		cmd = &LoadPleCodeIntoPleSramCommand{}
	case "START_PLE_STRIPE_COMMAND":
		cmd = &StartPleStripeCommand{}
	default:
		return errors.Errorf("unknown command <%s>", start.Name.Local)
	}
	if err := d.DecodeElement(cmd, &start); err != nil {
		return err
	}
	if dma, ok := cmd.(*DmaCommand); ok && !isDmaCommandType(dma.Type) {
		return errors.Errorf("<%s> cannot have type %s", start.Name.Local, dma.Type)
	}
	c.Command = cmd
	return nil
}

// registerField is a named register, or a named group of registers written as children
// <PREFIX0>, <PREFIX1>, ...
type registerField struct {
	name string

	// value is a *uint32 or a *Hex32, for single registers.
	value any

	prefix string
	group  []Hex32
}

func singleRegister(name string, value any) registerField {
	return registerField{name: name, value: value}
}

func registerGroup(name, prefix string, group []Hex32) registerField {
	return registerField{name: name, prefix: prefix, group: group}
}

func (c *ProgramMceStripeCommand) registerFields() []registerField {
	fields := []registerField{singleRegister("AGENT_ID", &c.AgentID)}
	for ce := range NumCes {
		fields = append(fields, registerGroup(fmt.Sprintf("MUL_ENABLE_CE%d", ce), "OG", c.MulEnable[ce][:]))
	}
	fields = append(fields,
		singleRegister("IFM_ROW_STRIDE", &c.IfmRowStride),
		singleRegister("IFM_CONFIG1", &c.IfmConfig1))
	for ii := range c.IfmPad {
		fields = append(fields, registerGroup(fmt.Sprintf("IFM_PAD_NUM%d", ii), "IG", c.IfmPad[ii][:]))
	}
	fields = append(fields,
		singleRegister("WIDE_KERNEL_OFFSET", &c.WideKernelOffset),
		singleRegister("IFM_TOP_SLOTS", &c.IfmTopSlots),
		singleRegister("IFM_MID_SLOTS", &c.IfmMidSlots),
		singleRegister("IFM_BOTTOM_SLOTS", &c.IfmBottomSlots),
		singleRegister("IFM_SLOT_PAD_CONFIG", &c.IfmSlotPadConfig),
		singleRegister("OFM_STRIPE_SIZE", &c.OfmStripeSize),
		singleRegister("OFM_CONFIG", &c.OfmConfig))
	for og := range NumOgs {
		fields = append(fields, singleRegister(fmt.Sprintf("WEIGHT_BASE_ADDR_OG%d", og), &c.WeightBaseAddr[og]))
	}
	for ce := range NumCes {
		fields = append(fields, registerGroup(fmt.Sprintf("IFM_CONFIG2_CE%d", ce), "IG", c.IfmConfig2[ce][:]))
	}
	return append(fields, singleRegister("NUM_BLOCKS_PROGRAMMED_FOR_MCE", &c.NumBlocksProgrammedForMce))
}

// MarshalXML implements xml.Marshaler.
func (c *ProgramMceStripeCommand) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return marshalRegisters(e, start, c.registerFields())
}

// UnmarshalXML implements xml.Unmarshaler.
func (c *ProgramMceStripeCommand) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return unmarshalRegisters(d, start, c.registerFields())
}

func (c *StartPleStripeCommand) registerFields() []registerField {
	fields := []registerField{singleRegister("AGENT_ID", &c.AgentID)}
	for ii := range c.Scratch {
		fields = append(fields, singleRegister(fmt.Sprintf("SCRATCH%d", ii), &c.Scratch[ii]))
	}
	return fields
}

// MarshalXML implements xml.Marshaler.
func (c *StartPleStripeCommand) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return marshalRegisters(e, start, c.registerFields())
}

// UnmarshalXML implements xml.Unmarshaler.
func (c *StartPleStripeCommand) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return unmarshalRegisters(d, start, c.registerFields())
}

func marshalRegisters(e *xml.Encoder, start xml.StartElement, fields []registerField) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, field := range fields {
		fieldStart := startElement(field.name)
		if field.group == nil {
			if err := e.EncodeElement(field.value, fieldStart); err != nil {
				return err
			}
			continue
		}
		if err := e.EncodeToken(fieldStart); err != nil {
			return err
		}
		for ii, value := range field.group {
			if err := e.EncodeElement(value, startElement(fmt.Sprintf("%s%d", field.prefix, ii))); err != nil {
				return err
			}
		}
		if err := e.EncodeToken(fieldStart.End()); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// unmarshalRegisters decodes the children of start into fields. Missing registers are left unchanged.
func unmarshalRegisters(d *xml.Decoder, start xml.StartElement, fields []registerField) error {
	byName := make(map[string]*registerField, len(fields))
	for ii := range fields {
		byName[fields[ii].name] = &fields[ii]
	}
	return forEachChild(d, func(child xml.StartElement) error {
		field, found := byName[child.Name.Local]
		if !found {
			return errors.Errorf("unknown register <%s> in <%s>", child.Name.Local, start.Name.Local)
		}
		if field.group == nil {
			return d.DecodeElement(field.value, &child)
		}
		return forEachChild(d, func(item xml.StartElement) error {
			index, ok := strings.CutPrefix(item.Name.Local, field.prefix)
			ii, err := strconv.Atoi(index)
			if !ok || err != nil || ii < 0 || ii >= len(field.group) {
				return errors.Errorf("unknown register <%s> in <%s>", item.Name.Local, field.name)
			}
			return d.DecodeElement(&field.group[ii], &item)
		})
	})
}

// forEachChild calls fn for each child element of the element just started, consuming the decoder up to
// its end. fn must consume the child it is given.
func forEachChild(d *xml.Decoder, fn func(child xml.StartElement) error) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := fn(t); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}
