package bundle

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mholt/archiver"
	"gopkg.in/yaml.v3"

	"github.com/aetherlink/aetherprov/pkg/firmware"
	"github.com/aetherlink/aetherprov/pkg/provision"
)

func stageWorkspace(t *testing.T, roles ...firmware.Role) firmware.Layout {
	t.Helper()
	layout := firmware.DefaultLayout(t.TempDir())
	for _, role := range roles {
		d, err := firmware.Locate(role)
		if err != nil {
			t.Fatalf("Locate(%s): %v", role, err)
		}
		p := layout.ArtifactPath(d)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("\x7fELF image for "+string(role)), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return layout
}

func TestExportBuildsManifestAndArchive(t *testing.T) {
	layout := stageWorkspace(t, firmware.Roles()...)
	x := &Exporter{
		Layout: layout,
		OutDir: filepath.Join(t.TempDir(), "dist"),
		Now:    func() time.Time { return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC) },
	}

	tarball, man, err := x.Export(nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if filepath.Base(tarball) != "aetherlink-20260314-092653.tar.gz" {
		t.Errorf("tarball name = %q", filepath.Base(tarball))
	}
	if _, err := os.Stat(tarball); err != nil {
		t.Fatalf("tarball not written: %v", err)
	}
	if man.BundleID == "" || man.Triple != firmware.DefaultTriple {
		t.Errorf("manifest metadata incomplete: %+v", man)
	}
	if len(man.Images) != 3 {
		t.Fatalf("manifest lists %d images, want 3", len(man.Images))
	}

	want := sha256.Sum256([]byte("\x7fELF image for client"))
	if man.Images[0].SHA256 != hex.EncodeToString(want[:]) {
		t.Errorf("client checksum = %s", man.Images[0].SHA256)
	}
	if man.Images[0].SizeBytes != int64(len("\x7fELF image for client")) {
		t.Errorf("client size = %d", man.Images[0].SizeBytes)
	}
}

func TestExportedManifestRoundTrips(t *testing.T) {
	layout := stageWorkspace(t, firmware.RoleClient)
	outDir := filepath.Join(t.TempDir(), "dist")
	x := &Exporter{Layout: layout, OutDir: outDir}

	tarball, man, err := x.Export([]firmware.Role{firmware.RoleClient})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	unpacked := t.TempDir()
	if err := archiver.TarGz.Open(tarball, unpacked); err != nil {
		t.Fatalf("unpacking bundle: %v", err)
	}

	staging := filepath.Base(tarball)
	staging = staging[:len(staging)-len(".tar.gz")]
	data, err := os.ReadFile(filepath.Join(unpacked, staging, ManifestName))
	if err != nil {
		t.Fatalf("manifest missing from archive: %v", err)
	}

	var got Manifest
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("manifest not parseable: %v", err)
	}
	if got.BundleID != man.BundleID {
		t.Errorf("bundle id mismatch: %s vs %s", got.BundleID, man.BundleID)
	}
	if len(got.Images) != 1 || got.Images[0].Role != "client" {
		t.Errorf("unexpected images: %+v", got.Images)
	}

	img := filepath.Join(unpacked, staging, got.Images[0].File)
	if _, err := os.Stat(img); err != nil {
		t.Errorf("image missing from archive: %v", err)
	}
}

func TestExportHonorsLocateOverride(t *testing.T) {
	layout := firmware.DefaultLayout(t.TempDir())
	renamed, err := firmware.Locate(firmware.RoleClient)
	if err != nil {
		t.Fatal(err)
	}
	renamed.Artifact = "client-rc2"

	p := layout.ArtifactPath(renamed)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("\x7fELF rc2"), 0o644); err != nil {
		t.Fatal(err)
	}

	x := &Exporter{
		Layout: layout,
		OutDir: filepath.Join(t.TempDir(), "dist"),
		Locate: func(firmware.Role) (firmware.TargetDescriptor, error) { return renamed, nil },
	}
	_, man, err := x.Export([]firmware.Role{firmware.RoleClient})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if man.Images[0].File != filepath.Join("images", "client-rc2") {
		t.Errorf("manifest file = %q, want renamed artifact", man.Images[0].File)
	}
}

func TestExportRequiresBuiltArtifacts(t *testing.T) {
	// Only the client image exists; exporting everything must fail fast.
	layout := stageWorkspace(t, firmware.RoleClient)
	x := &Exporter{Layout: layout, OutDir: filepath.Join(t.TempDir(), "dist")}

	_, _, err := x.Export(nil)
	var cfgErr *provision.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error is %T, want *provision.ConfigError", err)
	}

	// Nothing staged on failure.
	entries, _ := os.ReadDir(x.OutDir)
	if len(entries) != 0 {
		t.Errorf("staging residue after failed export: %v", entries)
	}
}
