package service

import "github.com/getkayan/medgas/domain"

// GasesService manages the gas catalogue (/gases).
type GasesService struct {
	*Resource[domain.Gas]
}
