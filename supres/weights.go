package supres

import (
	"fmt"
	"strings"
)

// WeightSet names a pretrained weight set.
type WeightSet string

// Known weight sets.
const (
	PSNRLarge   WeightSet = "psnr-large"
	PSNRSmall   WeightSet = "psnr-small"
	NoiseCancel WeightSet = "noise-cancel"
	GANs        WeightSet = "gans"
)

// Family is the network architecture a weight set belongs to.
type Family string

const (
	// RDN is the residual dense network.
	RDN Family = "rdn"
	// RRDN is the residual-in-residual dense network trained adversarially.
	RRDN Family = "rrdn"
)

var families = map[WeightSet]Family{
	PSNRLarge:   RDN,
	PSNRSmall:   RDN,
	NoiseCancel: RDN,
	GANs:        RRDN,
}

// WeightSets returns every known weight set in a fixed order.
func WeightSets() []WeightSet {
	return []WeightSet{PSNRLarge, PSNRSmall, NoiseCancel, GANs}
}

// ParseWeightSet validates name.
func ParseWeightSet(name string) (WeightSet, error) {
	ws := WeightSet(name)
	if _, ok := families[ws]; !ok {
		return "", fmt.Errorf("%w: %q (want one of %s)", ErrInvalidWeightSet, name, weightSetList())
	}
	return ws, nil
}

// Valid reports whether ws is a known weight set.
func (ws WeightSet) Valid() bool {
	_, ok := families[ws]
	return ok
}

// Family returns the family of ws, or "" for an unknown weight set.
func (ws WeightSet) Family() Family {
	return families[ws]
}

// Scale is the nominal upscale factor of the family's pretrained weights.
func (f Family) Scale() int {
	switch f {
	case RDN:
		return 2
	case RRDN:
		return 4
	}
	return 0
}

func weightSetList() string {
	names := make([]string, 0, len(families))
	for _, ws := range WeightSets() {
		names = append(names, string(ws))
	}
	return strings.Join(names, ", ")
}
