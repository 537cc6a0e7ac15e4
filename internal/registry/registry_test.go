package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(name), 0755))
	require.NoError(t, os.WriteFile(name, []byte(content), 0644))
}

func TestLoad_ScannedWithOverlay(t *testing.T) {
	typesDir := filepath.Join(t.TempDir(), "types")
	writeFile(t, filepath.Join(typesDir, "digitaal-bericht", "v1", "index.html"), "")
	writeFile(t, filepath.Join(typesDir, "digitaal-bericht", "v1", "index.php"), "")
	writeFile(t, filepath.Join(typesDir, "juiste-volgorde", "v2", "index.php"), "")
	require.NoError(t, os.MkdirAll(filepath.Join(typesDir, "leeg", "v1"), 0755))
	registryFile := filepath.Join(typesDir, "registry.json")
	writeFile(t, registryFile, `{"types":[
		{"id":"juiste-volgorde","version":"v2","name":"Juiste volgorde","description":"Sorteer","exampleDataUrl":"/types/juiste-volgorde/v2/voorbeeld.json"},
		{"id":"alleen-registry","version":"v1","launchUrl":"tools/x"},
		"kapot"
	]}`)

	got, err := Load(typesDir, registryFile)
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{
			ID:             "digitaal-bericht",
			Name:           "Digitaal Bericht",
			Version:        "v1",
			LaunchURL:      "/types/digitaal-bericht/v1/",
			SchemaURL:      "/types/digitaal-bericht/v1/schema.json",
			ExampleDataURL: "/types/digitaal-bericht/v1/example.json",
			DemoURL:        "/types/digitaal-bericht/v1/?unique_id=demo-digitaal-bericht-v1&data=%2Ftypes%2Fdigitaal-bericht%2Fv1%2Fexample.json",
		},
		{
			ID:             "juiste-volgorde",
			Name:           "Juiste volgorde",
			Version:        "v2",
			LaunchURL:      "/types/juiste-volgorde/v2/",
			Description:    "Sorteer",
			SchemaURL:      "/types/juiste-volgorde/v2/schema.json",
			ExampleDataURL: "/types/juiste-volgorde/v2/voorbeeld.json",
			DemoURL:        "/types/juiste-volgorde/v2/?unique_id=demo-juiste-volgorde-v2&data=%2Ftypes%2Fjuiste-volgorde%2Fv2%2Fvoorbeeld.json",
		},
	}, got)
}

func TestLoad_RegistryOnly(t *testing.T) {
	dir := t.TempDir()
	registryFile := filepath.Join(dir, "registry.json")
	writeFile(t, registryFile, `{"types":[
		{"id":"b","version":"2","name":"beta","launchUrl":"b/2"},
		{"id":"a","version":"1","launchUrl":"/a/1/"},
		{"id":"c","name":"Zonder launch"},
		{"id":"B","version":"1","name":"Beta","launchUrl":"/b1"},
		{"launchUrl":"/x/","name":"  "}
	]}`)

	got, err := Load(filepath.Join(dir, "missing"), registryFile)
	require.NoError(t, err)

	var names, launches, demos []string
	for _, e := range got {
		names = append(names, e.Name)
		launches = append(launches, e.LaunchURL)
		demos = append(demos, e.DemoURL)
	}
	assert.Equal(t, []string{"/x/", "a", "Beta", "beta"}, names)
	assert.Equal(t, []string{"/x/", "/a/1/", "/b1/", "/b/2/"}, launches)
	assert.Equal(t, "/x/?unique_id=demo&data=example.json", demos[0])
	assert.Equal(t, "/a/1/?unique_id=demo-a-1&data=example.json", demos[1])
}

func TestLoad_Empty(t *testing.T) {
	tests := []struct {
		name     string
		registry string
	}{
		{name: "no registry"},
		{name: "broken registry", registry: `{"types":`},
		{name: "types is not a list", registry: `{"types":{"a":1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			registryFile := filepath.Join(dir, "registry.json")
			if tt.registry != "" {
				writeFile(t, registryFile, tt.registry)
			}
			got, err := Load(filepath.Join(dir, "types"), registryFile)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestDirectory_ReloadKeepsEntriesOnError(t *testing.T) {
	dir := t.TempDir()
	registryFile := filepath.Join(dir, "registry.json")
	writeFile(t, registryFile, `{"types":[{"id":"a","version":"1","launchUrl":"/a/"}]}`)

	d := NewDirectory(filepath.Join(dir, "types"), registryFile)
	require.NoError(t, d.Reload())
	require.Len(t, d.Entries(), 1)

	require.NoError(t, os.Remove(registryFile))
	require.NoError(t, os.Mkdir(registryFile, 0755))
	assert.Error(t, d.Reload())
	assert.Len(t, d.Entries(), 1)
}

func TestWatcher(t *testing.T) {
	typesDir := filepath.Join(t.TempDir(), "types")
	writeFile(t, filepath.Join(typesDir, "timeline", "v1", "index.html"), "")

	d := NewDirectory(typesDir, filepath.Join(typesDir, "registry.json"))
	require.NoError(t, d.Reload())
	require.Len(t, d.Entries(), 1)

	w, err := NewWatcher(d)
	require.NoError(t, err)
	w.settle = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	writeFile(t, filepath.Join(typesDir, "registry.json"), `{"types":[{"id":"timeline","version":"v1","name":"Tijdlijn"}]}`)
	assert.Eventually(t, func() bool {
		entries := d.Entries()
		return len(entries) == 1 && entries[0].Name == "Tijdlijn"
	}, 2*time.Second, 10*time.Millisecond)

	writeFile(t, filepath.Join(typesDir, "timeline", "v2", "index.php"), "")
	// Version directories are not watched themselves; touching the registry picks the new file up.
	writeFile(t, filepath.Join(typesDir, "registry.json"), `{"types":[]}`)
	assert.Eventually(t, func() bool {
		return len(d.Entries()) == 2
	}, 2*time.Second, 10*time.Millisecond)
}
