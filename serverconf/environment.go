package serverconf

import (
	"fmt"
	"strconv"
)

const (
	DefaultExecutable = "/usr/local/nginx/sbin/nginx"
	DefaultHost       = "localhost"
	DefaultPort       = 9990
	DefaultWorkers    = 1
)

// Environment describes the server installation that the tests run against.
type Environment struct {
	Executable string
	Host       string
	Port       int
	Workers    int
}

// EnvironmentFrom reads NGINX_EXEC, NGINX_HOST, NGINX_PORT and NGINX_WORKERS through getenv,
// using the built-in defaults for any that are unset.
func EnvironmentFrom(getenv func(string) string) (Environment, error) {
	env := Environment{
		Executable: DefaultExecutable,
		Host:       DefaultHost,
		Port:       DefaultPort,
		Workers:    DefaultWorkers,
	}
	if v := getenv("NGINX_EXEC"); v != "" {
		env.Executable = v
	}
	if v := getenv("NGINX_HOST"); v != "" {
		env.Host = v
	}
	if v := getenv("NGINX_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Environment{}, fmt.Errorf("invalid NGINX_PORT %q", v)
		}
		env.Port = n
	}
	if v := getenv("NGINX_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Environment{}, fmt.Errorf("invalid NGINX_WORKERS %q", v)
		}
		env.Workers = n
	}
	return env, nil
}

// BaseURL is the root URL of the server's HTTP listener.
func (e Environment) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", e.Host, e.Port)
}
