package main

import (
	"fmt"
	"image"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"gopkg.in/yaml.v3"

	"github.com/HN67/hnpixels"
)

// duration lets config values use Go duration syntax ("90s", "2m").
type duration time.Duration

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = duration(parsed)
	return nil
}

// jobConfig names an image file and where its top-left pixel lands on the
// canvas. Negative origin components count back from the far edge.
type jobConfig struct {
	Image  string       `yaml:"image"`
	Origin originConfig `yaml:"origin"`
}

// originConfig is a canvas coordinate pair.
type originConfig struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// config is the daemon configuration file.
type config struct {
	// API overrides the canvas host. Empty means the official host.
	API string `yaml:"api"`
	// TokenFile is a file whose contents are the API token, either bare or
	// as a token=... line.
	TokenFile string `yaml:"token_file"`
	// Wait is the pause between full circuits over the jobs.
	Wait duration `yaml:"wait"`
	// Warmup delays the first request to each endpoint after startup.
	Warmup duration `yaml:"warmup"`
	// Jobs are the images to protect, processed in order.
	Jobs []jobConfig `yaml:"jobs"`
}

func loadConfig(path string) (*config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if len(cfg.Jobs) == 0 {
		return nil, fmt.Errorf("config %s declares no jobs", path)
	}
	for i, job := range cfg.Jobs {
		if strings.TrimSpace(job.Image) == "" {
			return nil, fmt.Errorf("config %s: job %d has no image path", path, i)
		}
	}
	return &cfg, nil
}

// loadToken reads an API token from a file, accepting either the bare token
// or a token=... line (the historical .env layout).
func loadToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	token = strings.TrimPrefix(token, "token=")
	if token == "" {
		return "", fmt.Errorf("token file %s is empty", path)
	}
	return token, nil
}

// loadJobs decodes every configured image into a protection job.
func loadJobs(cfgs []jobConfig) ([]hnpixels.Job, error) {
	jobs := make([]hnpixels.Job, 0, len(cfgs))
	for _, jc := range cfgs {
		img, err := imaging.Open(jc.Image)
		if err != nil {
			return nil, fmt.Errorf("load job image %s: %w", jc.Image, err)
		}
		jobs = append(jobs, hnpixels.Job{
			Image:  img,
			Origin: image.Point{X: jc.Origin.X, Y: jc.Origin.Y},
		})
	}
	return jobs, nil
}
