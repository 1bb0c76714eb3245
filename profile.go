package vitalia

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type ActivityLevel string

const (
	ActivitySedentary ActivityLevel = "sedentary"
	ActivityLight     ActivityLevel = "light"
	ActivityModerate  ActivityLevel = "moderate"
	ActivityIntense   ActivityLevel = "intense"
)

// Profile is the single user's body data. Weights are in kg, height in cm.
type Profile struct {
	Weight        float64       `json:"weight" validate:"gt=0"`
	TargetWeight  float64       `json:"targetWeight" validate:"gt=0"`
	Gender        Gender        `json:"gender" validate:"oneof=male female"`
	Age           int           `json:"age" validate:"gt=0"`
	Height        float64       `json:"height" validate:"gt=0"`
	ActivityLevel ActivityLevel `json:"activityLevel" validate:"oneof=sedentary light moderate intense"`
}

func DefaultProfile() Profile {
	return Profile{
		Weight:        70,
		TargetWeight:  68,
		Gender:        GenderMale,
		Age:           30,
		Height:        175,
		ActivityLevel: ActivitySedentary,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports every invalid field in one error.
func (p Profile) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s=%s)", fe.Field(), fe.Tag(), fe.Param()))
	}
	return fmt.Errorf("invalid profile: %s", strings.Join(fields, ", "))
}
