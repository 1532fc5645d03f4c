package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RegistrySeed lists roster and guest rows loaded at startup.
//
//	staff:
//	  - id: 6f1c...
//	    name: Jane Smith
//	    email: jane@hotel.example
//	    role: STAFF
//	guests:
//	  - id: 91ab...
//	    name: John Doe
//	    room_number: "210"
type RegistrySeed struct {
	Staff  []StaffSeed `yaml:"staff"`
	Guests []GuestSeed `yaml:"guests"`
}

// StaffSeed is one roster row.
type StaffSeed struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Email  string `yaml:"email"`
	Role   string `yaml:"role"`
	Active *bool  `yaml:"active,omitempty"`
}

// GuestSeed is one guest registry row.
type GuestSeed struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Email      string `yaml:"email"`
	RoomNumber string `yaml:"room_number"`
}

// LoadRegistrySeed reads a YAML seed file. An empty path yields an empty seed.
func LoadRegistrySeed(path string) (*RegistrySeed, error) {
	if path == "" {
		return &RegistrySeed{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry seed: %w", err)
	}
	return ParseRegistrySeed(data)
}

// ParseRegistrySeed decodes and checks a YAML seed document.
func ParseRegistrySeed(data []byte) (*RegistrySeed, error) {
	var seed RegistrySeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("decode registry seed: %w", err)
	}

	staffIDs := make(map[string]struct{}, len(seed.Staff))
	for i, s := range seed.Staff {
		if s.ID == "" || s.Name == "" {
			return nil, fmt.Errorf("staff[%d]: id and name required", i)
		}
		if s.Role != "STAFF" && s.Role != "ADMIN" {
			return nil, fmt.Errorf("staff[%d]: role must be STAFF or ADMIN, got %q", i, s.Role)
		}
		staffIDs[s.ID] = struct{}{}
	}
	for i, g := range seed.Guests {
		if g.ID == "" || g.Name == "" || g.RoomNumber == "" {
			return nil, fmt.Errorf("guests[%d]: id, name and room_number required", i)
		}
		if _, clash := staffIDs[g.ID]; clash {
			return nil, fmt.Errorf("guests[%d]: identity %s is also on the staff roster", i, g.ID)
		}
	}
	return &seed, nil
}
