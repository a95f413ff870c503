package cliContext

type Context struct {
	LogLevel  *string `env:"M2CONTEXT_LOG_LEVEL" enum:"error,warn,info,debug,trace" help:"Set the level of logs to output [${enum}]"`
	LogFormat *string `env:"M2CONTEXT_LOG_FORMAT" default:"default" enum:"default,text,json" help:"Set the format of logs to output [${enum}]"`
	Config    string  `env:"M2CONTEXT_CONFIG" type:"path" help:"YAML parser config, the minimax-m2 defaults are used when empty"`
}
