// Copyright 2018, RadiantBlue Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

// https://sentinels.copernicus.eu/web/sentinel/user-guides/sentinel-2-msi/naming-convention
// MMM_MSIXXX_YYYYMMDDHHMMSS_Nxxyy_ROOO_Txxxxx_<Product Discriminator>.SAFE
var productNamePattern = regexp.MustCompile(`^(S2[ABCD])_MSI(L[12][AC])_([0-9]{8}T[0-9]{6})_N([0-9]{4})_R([0-9]{3})_T([0-9]{2}[A-Z]{3})_([0-9]{8}T[0-9]{6})$`)

// ProductName is the identity encoded in a product container's directory name
type ProductName struct {
	ID            string
	Mission       string
	Level         string
	SensingTime   time.Time
	Baseline      string
	RelativeOrbit string
	Tile          string
	Discriminator string
}

// IsSafeContainer reports whether the final element of root carries the .SAFE suffix
func IsSafeContainer(root string) bool {
	return strings.HasSuffix(path.Base(strings.TrimRight(root, "/")), SafeSuffix)
}

// ParseProductName recovers the product identity from a container path such as
// ".../S2A_MSIL2A_20230926T022331_N0509_R103_T51PUP_20230926T062553.SAFE"
func ParseProductName(root string) (*ProductName, error) {
	base := path.Base(strings.TrimRight(strings.ReplaceAll(root, "\\", "/"), "/"))
	if !strings.HasSuffix(base, SafeSuffix) {
		return nil, fmt.Errorf("%w: %s is not a %s directory", ErrInvalidArgument, root, SafeSuffix)
	}
	id := strings.TrimSuffix(base, SafeSuffix)

	m := productNamePattern.FindStringSubmatch(id)
	if m == nil {
		return nil, fmt.Errorf("%w: product name '%s' did not match the expected Sentinel-2 format", ErrInvalidArgument, id)
	}
	m = m[1:] // Skip over whole string match

	sensing, err := time.Parse(SensingTimeFormat, m[2])
	if err != nil {
		return nil, fmt.Errorf("%w: sensing time in '%s': %v", ErrInvalidArgument, id, err)
	}

	return &ProductName{
		ID:            id,
		Mission:       m[0],
		Level:         m[1],
		SensingTime:   sensing,
		Baseline:      m[3],
		RelativeOrbit: m[4],
		Tile:          m[5],
		Discriminator: m[6],
	}, nil
}
