// Package directory holds the static office/appointment directory. Like the
// regulations table, this is configuration data swappable per jurisdiction.
package directory

// Office describes one government office and the services it books.
type Office struct {
	ID             string
	Name           string
	Services       []string
	AvailableSlots []string
}

// Default returns the built-in office directory.
func Default() []Office {
	return []Office{
		{
			ID:             "jce_sd",
			Name:           "Junta Central Electoral - Santo Domingo",
			Services:       []string{"cedula_renovation", "acta_nacimiento"},
			AvailableSlots: []string{"09:00", "10:00", "11:00", "14:00", "15:00"},
		},
		{
			ID:             "dgii_sd",
			Name:           "DGII - Santo Domingo",
			Services:       []string{"rnc", "declaracion_impuestos"},
			AvailableSlots: []string{"08:00", "09:00", "10:00", "11:00"},
		},
		{
			ID:             "intrant_sd",
			Name:           "INTRANT - Santo Domingo",
			Services:       []string{"licencia_conducir", "marbete"},
			AvailableSlots: []string{"08:00", "09:00", "10:00", "14:00", "15:00", "16:00"},
		},
	}
}

// Offers reports whether the office books the given procedure type.
func (o Office) Offers(procedureType string) bool {
	for _, service := range o.Services {
		if service == procedureType {
			return true
		}
	}
	return false
}

// AllServices returns the union of services across offices, used as recovery
// data when no office offers a requested procedure.
func AllServices(offices []Office) []string {
	seen := make(map[string]struct{})
	var services []string
	for _, office := range offices {
		for _, service := range office.Services {
			if _, ok := seen[service]; ok {
				continue
			}
			seen[service] = struct{}{}
			services = append(services, service)
		}
	}
	return services
}
