// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// DefaultClassifierSettings returns the production fusion thresholds. The
// same values back the viper defaults, so tests and config share one source.
func DefaultClassifierSettings() ClassifierSettings {
	return ClassifierSettings{
		WeaponThreshold:        0.50,
		VehicleThreshold:       0.60,
		FireLabelThreshold:     0.70,
		FireLabelThresholdLive: 0.50,
		FireColorMinPercent:    0.3,
		Aggression: AggressionSettings{
			DirectThreshold:    0.40,
			ContextThreshold:   0.35,
			ContextMinPersons:  2,
			ContextMinLabels:   2,
			PostureGroundLine:  0.7,
			PostureConfidence:  0.65,
			ContextCeiling:     0.75,
			ContextScoreBonus:  0.2,
			PostureLabelWeight: 0.5,
		},
	}
}

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "Guardia")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "guardia.log")

	viper.SetDefault("vision.credentialsfile", "")
	viper.SetDefault("vision.timeoutseconds", 15)
	viper.SetDefault("vision.maxlabels", 25)

	classifier := DefaultClassifierSettings()
	viper.SetDefault("classifier.weaponthreshold", classifier.WeaponThreshold)
	viper.SetDefault("classifier.vehiclethreshold", classifier.VehicleThreshold)
	viper.SetDefault("classifier.firelabelthreshold", classifier.FireLabelThreshold)
	viper.SetDefault("classifier.firelabelthresholdlive", classifier.FireLabelThresholdLive)
	viper.SetDefault("classifier.firecolorminpercent", classifier.FireColorMinPercent)

	aggression := classifier.Aggression
	viper.SetDefault("classifier.aggression.directthreshold", aggression.DirectThreshold)
	viper.SetDefault("classifier.aggression.contextthreshold", aggression.ContextThreshold)
	viper.SetDefault("classifier.aggression.contextminpersons", aggression.ContextMinPersons)
	viper.SetDefault("classifier.aggression.contextminlabels", aggression.ContextMinLabels)
	viper.SetDefault("classifier.aggression.posturegroundline", aggression.PostureGroundLine)
	viper.SetDefault("classifier.aggression.postureconfidence", aggression.PostureConfidence)
	viper.SetDefault("classifier.aggression.contextceiling", aggression.ContextCeiling)
	viper.SetDefault("classifier.aggression.contextscorebonus", aggression.ContextScoreBonus)
	viper.SetDefault("classifier.aggression.posturelabelweight", aggression.PostureLabelWeight)

	viper.SetDefault("firecolor.minpixels", 150)
	viper.SetDefault("firecolor.minpercent", 0.3)
	viper.SetDefault("firecolor.minregionarea", 300)
	viper.SetDefault("firecolor.minregionsize", 20)

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "alerts.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "guardia")
	viper.SetDefault("output.mysql.password", "")
	viper.SetDefault("output.mysql.database", "guardia")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	viper.SetDefault("escalation.criticalconfidence", 0.50)
	viper.SetDefault("escalation.emergencyconfidence", 0.80)
	viper.SetDefault("escalation.emergencyemail", "dispatch@emergencias.gov")
	viper.SetDefault("escalation.emergencyphone", "911")
	viper.SetDefault("escalation.police.email", "policia@emergencias.gov")
	viper.SetDefault("escalation.police.phone", "911")
	viper.SetDefault("escalation.firebrigade.email", "bomberos@emergencias.gov")
	viper.SetDefault("escalation.firebrigade.phone", "911")
	viper.SetDefault("escalation.notification.enabled", false)
	viper.SetDefault("escalation.notification.urls", []string{})

	viper.SetDefault("realtime.device", 0)
	viper.SetDefault("realtime.intervalseconds", 2.0)
	viper.SetDefault("realtime.savepath", "alert_frames/")
	viper.SetDefault("realtime.metricsport", 0)
	viper.SetDefault("realtime.location", "Live Camera")
}
