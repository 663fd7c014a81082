package blog

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// CanManageSpots reports whether u may create, edit or delete spots.
func CanManageSpots(u *User) bool {
	return u != nil && u.Role == RoleAdmin
}

// SpotInput holds the submitted spot form.
type SpotInput struct {
	NameBeach   string `form:"name_beach" validate:"required"`
	City        string `form:"city" validate:"required"`
	Country     string `form:"country" validate:"required"`
	Continent   string `form:"continent" validate:"required"`
	MapsURL     string `form:"maps_url" validate:"required,url"`
	Access      string `form:"access" validate:"required"`
	Clima       string `form:"clima" validate:"required"`
	WaveQuality string `form:"wave_quality" validate:"required"`
	Infos       string `form:"infos" validate:"required"`
	ImgURL      string `form:"img_url" validate:"required,url"`
}

func (in *SpotInput) trim() {
	for _, f := range []*string{
		&in.NameBeach, &in.City, &in.Country, &in.Continent, &in.MapsURL,
		&in.Access, &in.Clima, &in.WaveQuality, &in.Infos, &in.ImgURL,
	} {
		*f = strings.TrimSpace(*f)
	}
}

// Validate trims every field and checks that all are present and both
// links are absolute URLs.
func (in *SpotInput) Validate() error {
	in.trim()
	return validate.Struct(in)
}

// InputFrom copies the editable fields of p, used to prefill the edit form.
func InputFrom(p BlogPost) SpotInput {
	return SpotInput{
		NameBeach:   p.NameBeach,
		City:        p.City,
		Country:     p.Country,
		Continent:   p.Continent,
		MapsURL:     p.MapsURL,
		Access:      p.Access,
		Clima:       p.Clima,
		WaveQuality: p.WaveQuality,
		Infos:       p.Infos,
		ImgURL:      p.ImgURL,
	}
}

func (in SpotInput) apply(p *BlogPost) {
	p.NameBeach = in.NameBeach
	p.City = in.City
	p.Country = in.Country
	p.Continent = in.Continent
	p.MapsURL = in.MapsURL
	p.Access = in.Access
	p.Clima = in.Clima
	p.WaveQuality = in.WaveQuality
	p.Infos = in.Infos
	p.ImgURL = in.ImgURL
}

// fieldList names the failing form fields of a validator error.
func fieldList(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ""
	}
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		names = append(names, labels[fe.Field()])
	}
	return strings.Join(names, ", ")
}

var labels = map[string]string{
	"NameBeach":   "beach name",
	"City":        "city",
	"Country":     "country",
	"Continent":   "continent",
	"MapsURL":     "maps link",
	"Access":      "access",
	"Clima":       "climate",
	"WaveQuality": "wave quality",
	"Infos":       "infos",
	"ImgURL":      "image link",
}
