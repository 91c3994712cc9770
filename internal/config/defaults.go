package config

const (
	defaultConfigPath         = "~/.config/listingcast/config.toml"
	defaultOutputDir          = "~/.local/share/listingcast/output"
	defaultLogDir             = "~/.local/share/listingcast/logs"
	defaultStateDir           = "~/.local/share/listingcast/state"
	defaultAPIBind            = "127.0.0.1:7488"
	defaultDatabaseTable      = "listings"
	defaultValuesRange        = "A:Z"
	defaultQueueTimeout       = 20
	defaultCheckInterval      = 300
	defaultCooldown           = 10
	defaultErrorBackoff       = 30
	defaultTickMillis         = 1000
	defaultCollector          = "mock"
	defaultVoiceBackend       = "auto"
	defaultVideoBackend       = "auto"
	defaultFFmpegBinary       = "ffmpeg"
	defaultCueSeconds         = 10
	defaultMaxCues            = 20
	defaultPublishBackend     = "mock"
	defaultConfirmTimeout     = 600
	defaultPrivacyStatus      = "private"
	defaultYouTubeUploadURL   = "https://www.googleapis.com/upload/youtube/v3/videos"
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultAgencyName         = "청산부동산"
	defaultContact            = "청산부동산 02-1234-5678"
	defaultBrandMessage       = "신뢰할 수 있는 부동산 전문가, 청산부동산과 함께하세요"
	defaultIntro              = "안녕하세요! 부동산 전문가 청산부동산입니다.\n오늘도 여러분께 정확하고 신뢰할 수 있는 부동산 정보를 전해드리겠습니다."
	defaultOutro              = "지금까지 청산부동산이었습니다.\n부동산 투자나 매매에 대한 문의사항이 있으시면 언제든 연락주세요.\n전화: 02-1234-5678\n구독과 좋아요, 알림설정도 잊지 마세요! 감사합니다."
	defaultAdvertisingNotice  = "본 영상은 정보 제공 목적으로 제작되었으며, 투자 권유가 아닙니다. 부동산 투자 시 신중한 검토가 필요합니다."
	defaultPendingLabel       = "대기"
	defaultInProgressLabel    = "처리중"
	defaultDoneLabel          = "완료"
	defaultErrorLabel         = "오류"
	strategyDatabase          = "database"
	strategyPublicCSV         = "public_csv"
	strategyAPIKey            = "api_key"
	strategyOAuth             = "oauth"
)

var (
	defaultStrategies  = []string{strategyDatabase, strategyPublicCSV, strategyAPIKey, strategyOAuth}
	defaultPublishTags = []string{"부동산", "투자", "청산부동산", "아파트", "시세분석"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			StateDir:  defaultStateDir,
			APIBind:   defaultAPIBind,
		},
		Queue: Queue{
			Strategies:     append([]string(nil), defaultStrategies...),
			DatabaseTable:  defaultDatabaseTable,
			ValuesRange:    defaultValuesRange,
			RequestTimeout: defaultQueueTimeout,
			StatusLabels: StatusLabels{
				Pending:    defaultPendingLabel,
				InProgress: defaultInProgressLabel,
				Done:       defaultDoneLabel,
				Error:      defaultErrorLabel,
			},
		},
		Monitor: Monitor{
			CheckInterval: defaultCheckInterval,
			Cooldown:      defaultCooldown,
			ErrorBackoff:  defaultErrorBackoff,
			TickMillis:    defaultTickMillis,
			Autostart:     true,
		},
		Listing: Listing{
			Collector: defaultCollector,
		},
		Branding: Branding{
			AgencyName:    defaultAgencyName,
			Contact:       defaultContact,
			BrandMessage:  defaultBrandMessage,
			DefaultNotice: defaultAdvertisingNotice,
			Intro:         defaultIntro,
			Outro:         defaultOutro,
		},
		Render: Render{
			VoiceBackend: defaultVoiceBackend,
			VideoBackend: defaultVideoBackend,
			FFmpegBinary: defaultFFmpegBinary,
			CueSeconds:   defaultCueSeconds,
			MaxCues:      defaultMaxCues,
		},
		Publish: Publish{
			Backend:          defaultPublishBackend,
			ConfirmTimeout:   defaultConfirmTimeout,
			Tags:             append([]string(nil), defaultPublishTags...),
			PrivacyStatus:    defaultPrivacyStatus,
			YouTubeUploadURL: defaultYouTubeUploadURL,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Completion:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Metrics: Metrics{
			Enabled: true,
		},
	}
}
