// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandstream

import (
	"fmt"

	"github.com/pkg/errors"
)

// PleKernelID identifies one of the PLE kernel binaries shipped with the firmware.
//
// The kernels are specialized by operation, block size, block multiplier and, for some of them, by the
// signedness of the data. Their names follow the firmware convention, e.g. "V2442_SIGMOID_bw16_bh16_bm1_s8".
type PleKernelID uint16

// PleKernelIDNotFound is the zero value, used when there is no kernel.
const PleKernelIDNotFound PleKernelID = 0

// pleKernelFamily is an operation implemented by a set of kernels.
type pleKernelFamily struct {
	name string

	// signed families have a variant for int8 ("_s8") and one for uint8 ("_u8") data.
	signed bool
}

var pleKernelFamilies = []pleKernelFamily{
	{"PASSTHROUGH", false},
	{"ADDITION", true},
	{"ADDITION_RESCALE", true},
	{"AVGPOOL_3X3_1_1_UDMA", true},
	{"DOWNSAMPLE_2X2", false},
	{"INTERLEAVE_2X2_2_2", false},
	{"LEAKY_RELU", true},
	{"MAXPOOL_2X2_2_2", true},
	{"MAXPOOL_3X3_2_2_EVEN", true},
	{"MAXPOOL_3X3_2_2_ODD", true},
	{"MEAN_XY_7X7", true},
	{"MEAN_XY_8X8", true},
	{"SIGMOID", true},
	{"TRANSPOSE_XY", false},
}

// pleKernelBlockSizes are the (width, height) block sizes kernels are built for.
var pleKernelBlockSizes = [][2]uint32{{16, 16}, {16, 8}, {8, 16}, {8, 8}, {8, 32}, {32, 8}}

var (
	pleKernelNames []string
	pleKernelIDs   map[string]PleKernelID
)

func init() {
	pleKernelNames = []string{"NOT_FOUND"}
	for _, family := range pleKernelFamilies {
		for _, bs := range pleKernelBlockSizes {
			base := PleKernelName(family.name, bs[0], bs[1], 1, "")
			if !family.signed {
				pleKernelNames = append(pleKernelNames, base)
				continue
			}
			pleKernelNames = append(pleKernelNames, base+"_s8", base+"_u8")
		}
	}
	pleKernelIDs = make(map[string]PleKernelID, len(pleKernelNames))
	for ii, name := range pleKernelNames {
		pleKernelIDs[name] = PleKernelID(ii)
	}
}

// PleKernelName formats the name of a kernel. suffix is "", "_s8" or "_u8".
func PleKernelName(family string, blockWidth, blockHeight, blockMultiplier uint32, suffix string) string {
	return fmt.Sprintf("V2442_%s_bw%d_bh%d_bm%d%s", family, blockWidth, blockHeight, blockMultiplier, suffix)
}

// FindPleKernelID returns the kernel of the family for the block size and data signedness. It returns
// PleKernelIDNotFound if there is no such kernel.
func FindPleKernelID(family string, blockWidth, blockHeight uint32, signed bool) PleKernelID {
	base := PleKernelName(family, blockWidth, blockHeight, 1, "")
	if id, found := pleKernelIDs[base]; found {
		return id
	}
	suffix := "_u8"
	if signed {
		suffix = "_s8"
	}
	return pleKernelIDs[base+suffix]
}

// PleKernelIDString returns the kernel with the given name.
func PleKernelIDString(name string) (PleKernelID, error) {
	if id, found := pleKernelIDs[name]; found {
		return id, nil
	}
	return PleKernelIDNotFound, errors.Errorf("unknown PLE kernel %q", name)
}

// NumPleKernels is the number of known kernels, including PleKernelIDNotFound.
func NumPleKernels() int { return len(pleKernelNames) }

// String returns the kernel name.
func (id PleKernelID) String() string {
	if int(id) >= len(pleKernelNames) {
		return fmt.Sprintf("PleKernelID(%d)", id)
	}
	return pleKernelNames[id]
}

// MarshalText implements encoding.TextMarshaler.
func (id PleKernelID) MarshalText() ([]byte, error) {
	if int(id) >= len(pleKernelNames) {
		return nil, errors.Errorf("invalid PLE kernel id %d", id)
	}
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *PleKernelID) UnmarshalText(text []byte) error {
	var err error
	*id, err = PleKernelIDString(string(text))
	return err
}
