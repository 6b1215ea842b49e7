// config.go: settings struct and functions to load the application settings.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// MainSettings contains application-wide settings.
type MainSettings struct {
	Name string // instance name, used as source tag on alerts
	Log  struct {
		Enabled bool   // true to enable file logging
		Path    string // path to log file
	}
}

// VisionSettings contains settings for the external vision service adapters.
type VisionSettings struct {
	CredentialsFile string // path to service account credentials JSON
	TimeoutSeconds  int    // per-request timeout for annotate calls
	MaxLabels       int    // maximum scene labels requested per image
}

// AggressionSettings contains thresholds for the aggression strategies.
type AggressionSettings struct {
	DirectThreshold    float64 // minimum label score for direct matches
	ContextThreshold   float64 // minimum label score for contextual matches
	ContextMinPersons  int     // persons required before contextual runs
	ContextMinLabels   int     // qualifying labels required for a contextual hit
	PostureGroundLine  float64 // bbox center-y above which a person is "on ground"
	PostureConfidence  float64 // fixed confidence of the posture-pair strategy
	ContextCeiling     float64 // confidence cap of the contextual strategy
	ContextScoreBonus  float64 // added to the weighted average score
	PostureLabelWeight float64 // weight of posture terms in contextual scoring
}

// ClassifierSettings contains fusion thresholds. Values are fixed
// configuration, not learned.
type ClassifierSettings struct {
	WeaponThreshold        float64 // minimum object score for weapon detections
	VehicleThreshold       float64 // minimum object score for vehicle detections
	FireLabelThreshold     float64 // minimum label score for fire on still images
	FireLabelThresholdLive float64 // lower bar for densely sampled live frames
	FireColorMinPercent    float64 // minimum frame percentage for fire-by-color
	Aggression             AggressionSettings
}

// FireColorSettings contains tuning for the color-based fire segmenter.
type FireColorSettings struct {
	MinPixels     int     // minimum masked pixel count
	MinPercent    float64 // minimum percentage of frame pixels in the mask
	MinRegionArea int     // minimum pixel area of the largest region
	MinRegionSize int     // minimum width/height of the region bbox in pixels
}

// SQLiteSettings contains SQLite backend settings.
type SQLiteSettings struct {
	Enabled bool
	Path    string
}

// MySQLSettings contains MySQL backend settings.
type MySQLSettings struct {
	Enabled  bool
	Username string
	Password string
	Database string
	Host     string
	Port     string
}

// OutputSettings selects and configures the persistent store backend.
type OutputSettings struct {
	SQLite SQLiteSettings
	MySQL  MySQLSettings
}

// EmergencyContact is the contact channel pair of one emergency service.
type EmergencyContact struct {
	Email string
	Phone string
}

// EscalationSettings contains the confidence tiers and emergency contact
// channels used by the escalation router. Each service has its own contact;
// the shared EmergencyEmail/EmergencyPhone pair fills in any channel a
// service leaves empty.
type EscalationSettings struct {
	CriticalConfidence  float64          // tier at which escalation triggers
	EmergencyConfidence float64          // tier at which emergency services are provisioned
	EmergencyEmail      string           // fallback email channel for provisioned services
	EmergencyPhone      string           // fallback phone channel for provisioned services
	Police              EmergencyContact // contact for weapon emergencies
	FireBrigade         EmergencyContact // contact for fire emergencies
	Notification        struct {
		Enabled bool
		URLs    []string // shoutrrr service URLs
	}
}

// RealtimeSettings contains settings for the live camera loop.
type RealtimeSettings struct {
	Device          int     // capture device index
	IntervalSeconds float64 // minimum interval between extractor invocations
	SavePath        string  // directory for frames captured on critical alerts
	MetricsPort     int     // port for the /metrics endpoint, 0 disables
	Location        string  // location tag for alerts raised by this camera
}

// Settings is the root configuration for the application.
type Settings struct {
	Debug      bool
	Main       MainSettings
	Vision     VisionSettings
	Classifier ClassifierSettings
	FireColor  FireColorSettings
	Output     OutputSettings
	Escalation EscalationSettings
	Realtime   RealtimeSettings
}

// Load reads the configuration from the given file, or from the default
// search paths when path is empty, applies defaults and unmarshals into a
// Settings struct.
func Load(path string) (*Settings, error) {
	setDefaultConfig()

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			viper.AddConfigPath(filepath.Join(dir, "guardia"))
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No config file is fine, defaults apply.
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return settings, nil
}

// Validate checks settings combinations that cannot work at runtime.
func (s *Settings) Validate() error {
	if !s.Output.SQLite.Enabled && !s.Output.MySQL.Enabled {
		return fmt.Errorf("no output database enabled, enable sqlite or mysql")
	}
	if s.Classifier.WeaponThreshold < 0 || s.Classifier.WeaponThreshold > 1 {
		return fmt.Errorf("classifier.weaponthreshold must be within [0,1]")
	}
	if s.Classifier.VehicleThreshold < 0 || s.Classifier.VehicleThreshold > 1 {
		return fmt.Errorf("classifier.vehiclethreshold must be within [0,1]")
	}
	if s.Realtime.IntervalSeconds <= 0 {
		return fmt.Errorf("realtime.intervalseconds must be positive")
	}
	return nil
}
