// Command gencatalog writes the default location catalog: a GeoJSON
// FeatureCollection with one point per Brazilian state capital.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

type capital struct {
	UF   string
	Name string
	Lat  float64
	Lon  float64
}

// capitals lists the 27 state capitals with their coordinates, ordered by
// region as in IBGE publications.
var capitals = []capital{
	// North
	{"AC", "Rio Branco", -9.9747, -67.8100},
	{"AP", "Macapá", 0.0349, -51.0694},
	{"AM", "Manaus", -3.1190, -60.0217},
	{"PA", "Belém", -1.4558, -48.4902},
	{"RO", "Porto Velho", -8.7612, -63.9004},
	{"RR", "Boa Vista", 2.8235, -60.6758},
	{"TO", "Palmas", -10.1840, -48.3336},

	// Northeast
	{"AL", "Maceió", -9.6658, -35.7350},
	{"BA", "Salvador", -12.9714, -38.5014},
	{"CE", "Fortaleza", -3.7319, -38.5267},
	{"MA", "São Luís", -2.5307, -44.3068},
	{"PB", "João Pessoa", -7.1195, -34.8450},
	{"PE", "Recife", -8.0476, -34.8770},
	{"PI", "Teresina", -5.0892, -42.8016},
	{"RN", "Natal", -5.7945, -35.2110},
	{"SE", "Aracaju", -10.9472, -37.0731},

	// Midwest
	{"DF", "Brasília", -15.7939, -47.8828},
	{"GO", "Goiânia", -16.6869, -49.2648},
	{"MT", "Cuiabá", -15.6014, -56.0979},
	{"MS", "Campo Grande", -20.4697, -54.6201},

	// Southeast
	{"MG", "Belo Horizonte", -19.9167, -43.9345},
	{"ES", "Vitória", -20.3155, -40.3128},
	{"RJ", "Rio de Janeiro", -22.9068, -43.1729},
	{"SP", "São Paulo", -23.5505, -46.6333},

	// South
	{"PR", "Curitiba", -25.4284, -49.2733},
	{"RS", "Porto Alegre", -30.0346, -51.2177},
	{"SC", "Florianópolis", -27.5954, -48.5480},
}

func main() {
	out := flag.String("out", "./data/capitals_br.geojson", "output file path")
	flag.Parse()

	if err := run(*out); err != nil {
		fmt.Fprintf(os.Stderr, "gencatalog: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d capitals to %s\n", len(capitals), *out)
}

func run(path string) error {
	fc := geojson.NewFeatureCollection()
	for _, c := range capitals {
		f := geojson.NewFeature(orb.Point{c.Lon, c.Lat})
		f.Properties["name"] = c.Name
		f.Properties["uf"] = c.UF
		fc.Append(f)
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal collection: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}
