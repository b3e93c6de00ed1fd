package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v2"

	"github.com/learnhub-io/lms-backend/pkg/apihelpers"
	"github.com/learnhub-io/lms-backend/pkg/db"
	emailsending "github.com/learnhub-io/lms-backend/pkg/email-sending"
	emailtemplates "github.com/learnhub-io/lms-backend/pkg/email-templates"
	jwthandling "github.com/learnhub-io/lms-backend/pkg/jwt-handling"
	smtpclient "github.com/learnhub-io/lms-backend/pkg/smtp-client"
	usermanagement "github.com/learnhub-io/lms-backend/pkg/user-management"
	"github.com/learnhub-io/lms-backend/pkg/user-management/pwhash"
	"github.com/learnhub-io/lms-backend/pkg/utils"

	umUtils "github.com/learnhub-io/lms-backend/pkg/user-management/utils"

	userDB "github.com/learnhub-io/lms-backend/pkg/db/lms-user"
)

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	// Variables to override "secrets" in the config file
	ENV_LMS_USER_DB_USERNAME = "LMS_USER_DB_USERNAME"
	ENV_LMS_USER_DB_PASSWORD = "LMS_USER_DB_PASSWORD"

	ENV_SMTP_SERVER_USERNAME = "SMTP_SERVER_USERNAME"
	ENV_SMTP_SERVER_PASSWORD = "SMTP_SERVER_PASSWORD"

	ENV_ACCESS_TOKEN_SIGN_KEY  = "ACCESS_TOKEN_SIGN_KEY"
	ENV_REFRESH_TOKEN_SIGN_KEY = "REFRESH_TOKEN_SIGN_KEY"
	ENV_PASSWORD_PEPPER        = "PASSWORD_PEPPER"
)

type LmsApiConfig struct {
	// Logging configs
	Logging utils.LoggerConfig `json:"logging" yaml:"logging"`

	// Gin configs
	GinConfig struct {
		DebugMode    bool     `json:"debug_mode" yaml:"debug_mode"`
		AllowOrigins []string `json:"allow_origins" yaml:"allow_origins"`
		Port         string   `json:"port" yaml:"port"`

		// Mutual TLS configs
		MTLS struct {
			Use              bool                        `json:"use" yaml:"use"`
			CertificatePaths apihelpers.CertificatePaths `json:"certificate_paths" yaml:"certificate_paths"`
		} `json:"mtls" yaml:"mtls"`
	} `json:"gin_config" yaml:"gin_config"`

	// user management configs
	UserManagementConfig struct {
		PWHashing struct {
			Argon2Memory      uint32 `json:"argon2_memory" yaml:"argon2_memory"`
			Argon2Iterations  uint32 `json:"argon2_iterations" yaml:"argon2_iterations"`
			Argon2Parallelism uint8  `json:"argon2_parallelism" yaml:"argon2_parallelism"`
			Pepper            string `json:"pepper" yaml:"pepper"`
		} `json:"pw_hashing" yaml:"pw_hashing"`
		JWTConfig struct {
			AccessSignKey    string        `json:"access_sign_key" yaml:"access_sign_key"`
			RefreshSignKey   string        `json:"refresh_sign_key" yaml:"refresh_sign_key"`
			AccessExpiresIn  time.Duration `json:"access_expires_in" yaml:"access_expires_in"`
			RefreshExpiresIn time.Duration `json:"refresh_expires_in" yaml:"refresh_expires_in"`
		} `json:"jwt_config" yaml:"jwt_config"`
		BlockedPasswordsFilePath string `json:"blocked_passwords_file_path" yaml:"blocked_passwords_file_path"`
	} `json:"user_management_config" yaml:"user_management_config"`

	// DB configs
	DBConfigs struct {
		LmsUserDB db.DBConfigYaml `json:"lms_user_db" yaml:"lms_user_db"`
	} `json:"db_configs" yaml:"db_configs"`

	// Outbound email configs
	MailerConfig struct {
		SmtpServerConfigPath string                        `json:"smtp_server_config_path" yaml:"smtp_server_config_path"`
		Sender               emailsending.MailSenderConfig `json:"sender" yaml:"sender"`
	} `json:"mailer_config" yaml:"mailer_config"`
}

var (
	userDBService *userDB.UserDBService
	userMgmt      *usermanagement.Service
	tokenIssuer   *jwthandling.TokenIssuer
)

func init() {
	// Read config from file
	yamlFile, err := os.ReadFile(os.Getenv(ENV_CONFIG_FILE_PATH))
	if err != nil {
		panic(err)
	}

	err = yaml.UnmarshalStrict(yamlFile, &conf)
	if err != nil {
		panic(err)
	}

	// Init logger:
	utils.InitLogger(
		conf.Logging.LogLevel,
		conf.Logging.IncludeSrc,
		conf.Logging.LogToFile,
		conf.Logging.Filename,
		conf.Logging.MaxSize,
		conf.Logging.MaxAge,
		conf.Logging.MaxBackups,
		conf.Logging.CompressOldLogs,
		conf.Logging.IncludeBuildInfo,
	)

	// Override secrets from environment variables
	secretsOverride()

	// Init DBs
	initDBs()

	if !conf.GinConfig.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	if conf.UserManagementConfig.BlockedPasswordsFilePath != "" {
		if err := umUtils.LoadBlockedPasswords(conf.UserManagementConfig.BlockedPasswordsFilePath); err != nil {
			panic(err)
		}
	}

	// init user management
	initUserManagement()
}

func secretsOverride() {
	if dbUsername := os.Getenv(ENV_LMS_USER_DB_USERNAME); dbUsername != "" {
		conf.DBConfigs.LmsUserDB.Username = dbUsername
	}

	if dbPassword := os.Getenv(ENV_LMS_USER_DB_PASSWORD); dbPassword != "" {
		conf.DBConfigs.LmsUserDB.Password = dbPassword
	}

	if accessSignKey := os.Getenv(ENV_ACCESS_TOKEN_SIGN_KEY); accessSignKey != "" {
		conf.UserManagementConfig.JWTConfig.AccessSignKey = accessSignKey
	}

	if refreshSignKey := os.Getenv(ENV_REFRESH_TOKEN_SIGN_KEY); refreshSignKey != "" {
		conf.UserManagementConfig.JWTConfig.RefreshSignKey = refreshSignKey
	}

	if pepper := os.Getenv(ENV_PASSWORD_PEPPER); pepper != "" {
		conf.UserManagementConfig.PWHashing.Pepper = pepper
	}
}

func initDBs() {
	var err error
	userDBService, err = userDB.NewUserDBService(db.DBConfigFromYamlObj(conf.DBConfigs.LmsUserDB))
	if err != nil {
		panic(err)
	}
}

func initUserManagement() {
	// a missing pepper or sign key must stop the service, not fall back to a
	// weaker configuration
	hasher, err := pwhash.New(pwhash.Config{
		Memory:      conf.UserManagementConfig.PWHashing.Argon2Memory,
		Iterations:  conf.UserManagementConfig.PWHashing.Argon2Iterations,
		Parallelism: conf.UserManagementConfig.PWHashing.Argon2Parallelism,
		Pepper:      conf.UserManagementConfig.PWHashing.Pepper,
	})
	if err != nil {
		panic(err)
	}

	tokenIssuer, err = jwthandling.NewTokenIssuer(
		conf.UserManagementConfig.JWTConfig.AccessSignKey,
		conf.UserManagementConfig.JWTConfig.RefreshSignKey,
		conf.UserManagementConfig.JWTConfig.AccessExpiresIn,
		conf.UserManagementConfig.JWTConfig.RefreshExpiresIn,
	)
	if err != nil {
		panic(err)
	}

	userMgmt, err = usermanagement.NewService(
		userDBService,
		hasher,
		tokenIssuer,
		initMailSender(),
	)
	if err != nil {
		panic(err)
	}
}

func initMailSender() *emailsending.MailSender {
	if err := emailtemplates.CheckAllTemplatesParsable(); err != nil {
		panic(err)
	}

	var smtpServerConfig smtpclient.SmtpServerList
	if err := smtpServerConfig.ReadFromFile(conf.MailerConfig.SmtpServerConfigPath); err != nil {
		panic(err)
	}

	username := os.Getenv(ENV_SMTP_SERVER_USERNAME)
	password := os.Getenv(ENV_SMTP_SERVER_PASSWORD)
	for i := range smtpServerConfig.Servers {
		if username != "" {
			smtpServerConfig.Servers[i].SetUsername(username)
		}
		if password != "" {
			smtpServerConfig.Servers[i].SetPassword(password)
		}
	}

	smtpClients, err := smtpclient.NewSmtpClients(smtpServerConfig)
	if err != nil {
		panic(err)
	}

	return emailsending.NewMailSender(smtpClients, conf.MailerConfig.Sender, nil)
}
