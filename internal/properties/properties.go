package properties

import "os"

func RootPath() string {
	return os.Getenv("AGRISCOPE_ROOT_PATH")
}

func SentinelHubBaseURL() string {
	if url := os.Getenv("SH_BASE_URL"); url != "" {
		return url
	}
	return "https://sh.dataspace.copernicus.eu"
}

func SentinelHubClientIDs() string {
	return os.Getenv("SH_CLIENT_ID")
}

func SentinelHubClientSecrets() string {
	return os.Getenv("SH_CLIENT_SECRET")
}

func SentinelHubTokenURL() string {
	return os.Getenv("SH_TOKEN_URL")
}

func SentinelHubInstanceID() string {
	return os.Getenv("SH_INSTANCE_ID")
}

func DiscordErrorNotificationUrl() string {
	return os.Getenv("DISCORD_ERROR_NOTIFICATION_URL")
}

func DiscordSuccessNotificationUrl() string {
	return os.Getenv("DISCORD_SUCCESS_NOTIFICATION_URL")
}
