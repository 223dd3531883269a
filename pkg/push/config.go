package push

import "time"

type Config struct {
	URL         string        `env:"EXPO_PUSH_URL" envDefault:"https://exp.host/--/api/v2/push/send"`
	AccessToken string        `env:"EXPO_ACCESS_TOKEN"`
	Timeout     time.Duration `env:"EXPO_PUSH_TIMEOUT" envDefault:"10s"`
}
