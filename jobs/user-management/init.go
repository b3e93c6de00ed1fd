package main

import (
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/learnhub-io/lms-backend/pkg/db"
	"github.com/learnhub-io/lms-backend/pkg/utils"

	userDB "github.com/learnhub-io/lms-backend/pkg/db/lms-user"
)

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	// Variables to override "secrets" in the config file
	ENV_LMS_USER_DB_USERNAME = "LMS_USER_DB_USERNAME"
	ENV_LMS_USER_DB_PASSWORD = "LMS_USER_DB_PASSWORD"
)

type config struct {
	// Logging configs
	Logging utils.LoggerConfig `json:"logging" yaml:"logging"`

	// DB configs
	DBConfigs struct {
		LmsUserDB db.DBConfigYaml `json:"lms_user_db" yaml:"lms_user_db"`
	} `json:"db_configs" yaml:"db_configs"`

	// user management configs
	UserManagementConfig struct {
		DeleteUnverifiedUsersAfter time.Duration `json:"delete_unverified_users_after" yaml:"delete_unverified_users_after"`
	} `json:"user_management_config" yaml:"user_management_config"`
}

var (
	conf          config
	userDBService *userDB.UserDBService
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
}

func secretsOverride() {
	if dbUsername := os.Getenv(ENV_LMS_USER_DB_USERNAME); dbUsername != "" {
		conf.DBConfigs.LmsUserDB.Username = dbUsername
	}

	if dbPassword := os.Getenv(ENV_LMS_USER_DB_PASSWORD); dbPassword != "" {
		conf.DBConfigs.LmsUserDB.Password = dbPassword
	}
}

func initDBs() {
	var err error
	userDBService, err = userDB.NewUserDBService(db.DBConfigFromYamlObj(conf.DBConfigs.LmsUserDB))
	if err != nil {
		panic(err)
	}
}
