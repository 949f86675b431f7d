// Package bundle packs built firmware images into a distributable archive:
// a staging directory with the images, a manifest recording what they are
// and their checksums, and a tarball of the whole thing for handoff to
// whoever provisions boards off-site.
package bundle

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mholt/archiver"
	copier "github.com/otiai10/copy"
	"gopkg.in/yaml.v3"

	"github.com/aetherlink/aetherprov/pkg/firmware"
	"github.com/aetherlink/aetherprov/pkg/provision"
)

// ManifestName is the manifest file written into each bundle.
const ManifestName = "manifest.yaml"

// Manifest describes one exported bundle.
type Manifest struct {
	BundleID  string    `yaml:"bundle_id"`
	CreatedAt time.Time `yaml:"created_at"`
	Triple    string    `yaml:"triple"`
	Profile   string    `yaml:"profile"`
	Images    []Image   `yaml:"images"`
}

// Image is one firmware image inside a bundle.
type Image struct {
	Role      string `yaml:"role"`
	Package   string `yaml:"package"`
	File      string `yaml:"file"`
	SizeBytes int64  `yaml:"size_bytes"`
	SHA256    string `yaml:"sha256"`
}

// Exporter stages and archives built images.
type Exporter struct {
	Layout firmware.Layout
	OutDir string

	// Locate resolves a role's descriptor, defaulting to firmware.Locate.
	// Overridable so configured artifact names reach the manifest.
	Locate func(firmware.Role) (firmware.TargetDescriptor, error)

	// Now stamps bundle names; tests pin it.
	Now func() time.Time
}

// Export stages the given roles' images (all roles when empty), writes the
// manifest, and archives the staging directory. It returns the tarball
// path and the manifest. Every image must already be built; a missing one
// fails the export before anything is written.
func (x *Exporter) Export(roles []firmware.Role) (string, *Manifest, error) {
	if len(roles) == 0 {
		roles = firmware.Roles()
	}

	locate := firmware.Locate
	if x.Locate != nil {
		locate = x.Locate
	}

	descs := make([]firmware.TargetDescriptor, 0, len(roles))
	for _, role := range roles {
		d, err := locate(role)
		if err != nil {
			return "", nil, &provision.ConfigError{Role: role, Err: err}
		}
		if _, err := os.Stat(x.Layout.ArtifactPath(d)); err != nil {
			return "", nil, &provision.ConfigError{Role: role, Artifact: x.Layout.ArtifactPath(d), Err: err}
		}
		descs = append(descs, d)
	}

	now := time.Now
	if x.Now != nil {
		now = x.Now
	}
	stamp := now().UTC()
	staging := filepath.Join(x.OutDir, "aetherlink-"+stamp.Format("20060102-150405"))
	imagesDir := filepath.Join(staging, "images")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("creating staging dir: %w", err)
	}

	man := &Manifest{
		BundleID:  uuid.NewString(),
		CreatedAt: stamp,
		Triple:    x.Layout.Triple,
		Profile:   x.Layout.Profile,
	}
	for _, d := range descs {
		src := x.Layout.ArtifactPath(d)
		dst := filepath.Join(imagesDir, d.Artifact)
		if err := copier.Copy(src, dst); err != nil {
			return "", nil, fmt.Errorf("staging %s: %w", d.Artifact, err)
		}
		img, err := describeImage(d, dst)
		if err != nil {
			return "", nil, err
		}
		man.Images = append(man.Images, img)
	}

	data, err := yaml.Marshal(man)
	if err != nil {
		return "", nil, fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(staging, ManifestName), data, 0o644); err != nil {
		return "", nil, fmt.Errorf("writing manifest: %w", err)
	}

	tarball := staging + ".tar.gz"
	if err := archiver.TarGz.Make(tarball, []string{staging}); err != nil {
		return "", nil, fmt.Errorf("archiving bundle: %w", err)
	}
	return tarball, man, nil
}

func describeImage(d firmware.TargetDescriptor, path string) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return Image{}, fmt.Errorf("reading staged image: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return Image{}, fmt.Errorf("hashing %s: %w", d.Artifact, err)
	}
	return Image{
		Role:      string(d.Role),
		Package:   d.Package,
		File:      filepath.Join("images", d.Artifact),
		SizeBytes: n,
		SHA256:    hex.EncodeToString(h.Sum(nil)),
	}, nil
}
