package domain

import "errors"

// CargoType discriminates the payload carried by a shipment
type CargoType string

const (
	CargoTypeVehicle   CargoType = "vehicle"
	CargoTypeContainer CargoType = "container"
	CargoTypeLCL       CargoType = "lcl"
)

// Mode is the transport mode, derived from the cargo type and never
// stored independently
type Mode string

const (
	ModeRoRo      Mode = "RoRo"
	ModeContainer Mode = "Container"
)

// ErrInvalidCargoComposition is returned when the cargo detail blocks do
// not match the declared cargo type
var ErrInvalidCargoComposition = errors.New("cargo details do not match declared cargo type")

// IsValid checks if the cargo type is a known value
func (t CargoType) IsValid() bool {
	switch t {
	case CargoTypeVehicle, CargoTypeContainer, CargoTypeLCL:
		return true
	}
	return false
}

// Mode derives the transport mode for the cargo type. Vehicles roll on
// and off, everything else travels containerized.
func (t CargoType) Mode() Mode {
	if t == CargoTypeVehicle {
		return ModeRoRo
	}
	return ModeContainer
}

// VehicleCargo holds the detail block for vehicle shipments
type VehicleCargo struct {
	VIN       string `bson:"vin" json:"vin"`
	Make      string `bson:"make" json:"make"`
	Model     string `bson:"model" json:"model"`
	Year      int    `bson:"year,omitempty" json:"year,omitempty"`
	BookingNo string `bson:"bookingNo,omitempty" json:"bookingNo,omitempty"`
}

// ContainerCargo holds the detail block for full-container shipments
type ContainerCargo struct {
	ContainerNo string `bson:"containerNo" json:"containerNo"`
	Size        string `bson:"size,omitempty" json:"size,omitempty"`
	SealNo      string `bson:"sealNo,omitempty" json:"sealNo,omitempty"`
}

// LCLCargo holds the detail block for less-than-container-load shipments
type LCLCargo struct {
	Description string  `bson:"description" json:"description"`
	WeightKg    float64 `bson:"weightKg,omitempty" json:"weightKg,omitempty"`
	VolumeM3    float64 `bson:"volumeM3,omitempty" json:"volumeM3,omitempty"`
	Pieces      int     `bson:"pieces,omitempty" json:"pieces,omitempty"`
}

// Cargo is the polymorphic cargo description. Exactly one detail block is
// populated and it must agree with Type.
type Cargo struct {
	Type      CargoType       `bson:"type" json:"type"`
	Vehicle   *VehicleCargo   `bson:"vehicle,omitempty" json:"vehicle,omitempty"`
	Container *ContainerCargo `bson:"container,omitempty" json:"container,omitempty"`
	LCL       *LCLCargo       `bson:"lcl,omitempty" json:"lcl,omitempty"`
}

// ResolveCargo validates that exactly one detail block is present and that
// it matches the declared type, returning a normalized Cargo
func ResolveCargo(cargoType CargoType, candidate Cargo) (Cargo, error) {
	if !cargoType.IsValid() {
		return Cargo{}, ErrInvalidCargoComposition
	}

	populated := 0
	if candidate.Vehicle != nil {
		populated++
	}
	if candidate.Container != nil {
		populated++
	}
	if candidate.LCL != nil {
		populated++
	}
	if populated != 1 {
		return Cargo{}, ErrInvalidCargoComposition
	}

	resolved := Cargo{Type: cargoType}
	switch cargoType {
	case CargoTypeVehicle:
		if candidate.Vehicle == nil {
			return Cargo{}, ErrInvalidCargoComposition
		}
		resolved.Vehicle = candidate.Vehicle
	case CargoTypeContainer:
		if candidate.Container == nil {
			return Cargo{}, ErrInvalidCargoComposition
		}
		resolved.Container = candidate.Container
	case CargoTypeLCL:
		if candidate.LCL == nil {
			return Cargo{}, ErrInvalidCargoComposition
		}
		resolved.LCL = candidate.LCL
	}

	return resolved, nil
}
