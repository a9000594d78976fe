package config

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int              `yaml:"port"`
	Env            string           `yaml:"env"` // "development" | "production"
	Database       DatabaseConfig   `yaml:"database"`
	RedisURL       string           `yaml:"redis_url"`
	AllowedOrigins []string         `yaml:"allowed_origins"`
	JWTSecret      string           `yaml:"jwt_secret"`
	Mail           MailConfig       `yaml:"mail"`
	Newsletter     NewsletterConfig `yaml:"newsletter"`
	LogDir         string           `yaml:"log_dir"`
}

// DatabaseConfig describes the MySQL connection. Either a full DSN or the
// individual parts; DSNValue resolves the precedence.
type DatabaseConfig struct {
	DSN      string            `yaml:"dsn"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	User     string            `yaml:"user"`
	Password string            `yaml:"password"`
	Name     string            `yaml:"name"`
	Charset  string            `yaml:"charset"`
	Loc      string            `yaml:"loc"`
	Params   map[string]string `yaml:"params"`
}

// MailConfig is the outbound transport configuration. It is loaded once at
// startup and handed to the mailer constructor; nothing reads it globally.
type MailConfig struct {
	Enable    bool   `yaml:"enable"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Secure    bool   `yaml:"secure"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	FromName  string `yaml:"from_name"`
	FromEmail string `yaml:"from_email"`
	ReplyTo   string `yaml:"reply_to"`
	ResendKey string `yaml:"resend_key"` // set to deliver via the Resend API instead of SMTP
}

// NewsletterConfig tunes the campaign delivery engine and the rendered footer.
type NewsletterConfig struct {
	BaseURL        string `yaml:"base_url"`       // public site URL used in unsubscribe links
	PostalAddress  string `yaml:"postal_address"` // compliance footer line
	SendIntervalMS int    `yaml:"send_interval_ms"`
	SendWorkers    int    `yaml:"send_workers"`
	ErrorSample    int    `yaml:"error_sample"` // max per-recipient errors returned per run
}
