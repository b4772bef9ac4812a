package service

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"vehicle_parking/internal/domain"
)

var (
	postalCodePattern = regexp.MustCompile(`^[0-9]{3,10}$`)
	vehicleNoPattern  = regexp.MustCompile(`^[A-Z0-9]{4,12}$`)
)

// NormalizeVehicleNo upper-cases the plate and strips spaces and dashes.
func NormalizeVehicleNo(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	return strings.NewReplacer(" ", "", "-", "").Replace(s)
}

func ValidVehicleNo(raw string) bool {
	return vehicleNoPattern.MatchString(NormalizeVehicleNo(raw))
}

func ValidPostalCode(raw string) bool {
	return postalCodePattern.MatchString(strings.TrimSpace(raw))
}

func parsePostalCode(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if !ValidPostalCode(raw) {
		return 0, validationError("pincode must be 3 to 10 digits")
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validationError("pincode %q is not a number", raw)
	}
	return v, nil
}

func parseVehicleNo(raw string) (string, error) {
	v := NormalizeVehicleNo(raw)
	if !vehicleNoPattern.MatchString(v) {
		return "", validationError("vehicle number must be 4 to 12 letters or digits")
	}
	return v, nil
}

// ParseLotInput coerces the raw lot form. Capacity is only read when forCreate is set.
func ParseLotInput(dto domain.ParkingLotDTO, forCreate bool) (domain.ParkingLotInput, error) {
	var in domain.ParkingLotInput

	in.Name = strings.TrimSpace(dto.Location)
	if in.Name == "" {
		return in, validationError("location name is required")
	}
	in.Address = strings.TrimSpace(dto.Address)
	if in.Address == "" {
		return in, validationError("address is required")
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(dto.Price), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return in, validationError("price %q is not a number", dto.Price)
	}
	in.PricePerHour = price

	if in.PostalCode, err = parsePostalCode(dto.PostalCode); err != nil {
		return in, err
	}

	if forCreate {
		capacity, err := strconv.Atoi(strings.TrimSpace(dto.Spots))
		if err != nil {
			return in, validationError("number of spots %q is not an integer", dto.Spots)
		}
		in.Capacity = capacity
	}
	return in, validateLotInput(in, forCreate)
}

func validateLotInput(in domain.ParkingLotInput, forCreate bool) error {
	if strings.TrimSpace(in.Name) == "" {
		return validationError("location name is required")
	}
	if in.PricePerHour <= 0 {
		return validationError("price must be greater than zero")
	}
	if in.PostalCode < 0 {
		return validationError("pincode must not be negative")
	}
	if forCreate && in.Capacity <= 0 {
		return validationError("number of spots must be a positive integer")
	}
	return nil
}

// ParseRegisterInput coerces the raw registration form.
func ParseRegisterInput(dto domain.RegisterUserDTO) (domain.RegisterUserInput, error) {
	in := domain.RegisterUserInput{
		Username: strings.TrimSpace(dto.Username),
		Password: dto.Password,
		FullName: strings.TrimSpace(dto.FullName),
		Address:  strings.TrimSpace(dto.Address),
	}
	if len(in.Username) < 3 || len(in.Username) > 50 {
		return in, validationError("username must be 3 to 50 characters")
	}
	if len(in.Password) < 4 {
		return in, validationError("password must be at least 4 characters")
	}
	if in.FullName == "" {
		return in, validationError("full name is required")
	}
	if in.Address == "" {
		return in, validationError("address is required")
	}
	postal, err := parsePostalCode(dto.PostalCode)
	if err != nil {
		return in, err
	}
	in.PostalCode = postal
	return in, nil
}
