package directory

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// ErrMissingField is returned when a directory record lacks one of key, name
// or playlist.
var ErrMissingField = errors.New("station record is missing a required field")

// Getter fetches a text document.
type Getter interface {
	GetText(ctx context.Context, url string) (string, error)
}

// Station is one entry of the aggregator's station directory.
type Station struct {
	Key        string
	Name       string
	PointerURL string
}

// record mirrors the JSON shape. Pointers let validation tell an absent or
// null field apart from an empty string.
type record struct {
	Key      *string `json:"key" validate:"required"`
	Name     *string `json:"name" validate:"required"`
	Playlist *string `json:"playlist" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}

// Fetch downloads the station directory at url and parses it. The returned
// stations keep the order of the directory.
func Fetch(ctx context.Context, g Getter, url string) ([]Station, error) {
	body, err := g.GetText(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch station directory")
	}

	return Parse([]byte(body))
}

// Parse decodes a JSON array of {key, name, playlist} records. Every record
// is checked before any station is returned.
func Parse(data []byte) ([]Station, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(err, "failed to decode station directory")
	}

	if records == nil {
		return nil, errors.New("station directory is not a JSON array")
	}

	stations := make([]Station, 0, len(records))
	for i, r := range records {
		if err := validate.Struct(r); err != nil {
			return nil, recordError(i, err)
		}

		stations = append(stations, Station{
			Key:        *r.Key,
			Name:       *r.Name,
			PointerURL: *r.Playlist,
		})
	}

	return stations, nil
}

func recordError(i int, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrapf(err, "station %d", i)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}

	return errors.Wrapf(ErrMissingField, "station %d: %s", i, strings.Join(fields, ", "))
}
