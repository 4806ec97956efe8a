// Command mockcarto serves a fake named-map API for local runs of tilecarto:
//
//	mockcarto --config=mock.yaml &
//	tilecarto --api-url=http://127.0.0.1:8081 --username=u --api-key=k cartodb:///roads
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gi8lino/tilecarto/internal/testutils"

	"github.com/containeroo/tinyflags"
	"gopkg.in/yaml.v3"
)

// Config is the mock server configuration root.
type Config struct {
	Port              int           `yaml:"port"`
	Delay             time.Duration `yaml:"delay"`
	LayerGroupID      string        `yaml:"layerGroupId"`
	UpdateStatus      int           `yaml:"updateStatus"`      // 400 simulates a missing map
	CreateStatus      int           `yaml:"createStatus"`      // 0 means 200
	InstantiateStatus int           `yaml:"instantiateStatus"` // 0 means 200
}

// main starts the mock server.
func main() {
	var (
		flagConfigPath string
		flagLogBody    bool
	)

	tf := tinyflags.NewFlagSet("mockcarto", tinyflags.ExitOnError)
	tf.StringVar(&flagConfigPath, "config", "", "Path to mock config.yaml (optional)").Value()
	tf.BoolVar(&flagLogBody, "log-body", false, "Log JSON request bodies").Value()

	if err := tf.Parse(os.Args[1:]); err != nil {
		log.Fatal("flag parse error:", err)
	}

	cfg := Config{}
	if strings.TrimSpace(flagConfigPath) != "" {
		var err error
		if cfg, err = loadConfig(flagConfigPath); err != nil {
			log.Fatalf("config error: %v", err)
		}
	}
	if cfg.Port == 0 {
		cfg.Port = 8081
	}

	api := testutils.NewNamedMapAPI(testutils.FakeOptions{
		UpdateStatus:      cfg.UpdateStatus,
		CreateStatus:      cfg.CreateStatus,
		InstantiateStatus: cfg.InstantiateStatus,
		LayerGroupID:      cfg.LayerGroupID,
		Delay:             cfg.Delay,
	})

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.ServeHTTP(w, r)
		calls := api.Calls()
		if len(calls) == 0 {
			return
		}
		last := calls[len(calls)-1]
		if flagLogBody {
			log.Printf("%s %s body=%v", last.Method, last.Path, last.Body)
			return
		}
		log.Printf("%s %s", last.Method, last.Path)
	})

	addr := ":" + strconv.Itoa(cfg.Port)
	log.Printf("Mock named-map API listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}

// loadConfig reads the YAML configuration file.
func loadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(string(raw)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg, nil
}
