// Package typeid mints and checks the prefixed ids used for every stored
// entity, and the /assets/ URLs that floor plans are referenced by.
package typeid

import (
	"fmt"
	"strings"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixUser     = "user"
	PrefixBuilding = "bld"
	PrefixFloor    = "floor"
	PrefixLocation = "loc"
	PrefixAsset    = "asset"
)

const (
	assetPathPrefix = "/assets/"
	assetExt        = ".svg"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewUserID() string     { return New(PrefixUser) }
func NewBuildingID() string { return New(PrefixBuilding) }
func NewFloorID() string    { return New(PrefixFloor) }
func NewLocationID() string { return New(PrefixLocation) }
func NewAssetID() string    { return New(PrefixAsset) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}

// AssetURL is the svgSource a floor uses to reference an uploaded plan.
func AssetURL(assetID string) string {
	return assetPathPrefix + assetID + assetExt
}

// IsAssetSource reports whether source points into the asset store.
func IsAssetSource(source string) bool {
	return strings.HasPrefix(source, assetPathPrefix)
}

// AssetIDFromSource extracts the asset id from an /assets/<id>.svg source.
func AssetIDFromSource(source string) (string, error) {
	if !IsAssetSource(source) {
		return "", fmt.Errorf("%q is not an asset source", source)
	}
	name := strings.TrimPrefix(source, assetPathPrefix)
	id, ok := strings.CutSuffix(name, assetExt)
	if !ok {
		return "", fmt.Errorf("asset source %q must end in %s", source, assetExt)
	}
	if err := Validate(id, PrefixAsset); err != nil {
		return "", err
	}
	return id, nil
}
