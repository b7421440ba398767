package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	Version = "1.0.0"

	// Environment variable for passphrase
	PassphraseEnvVar = "PKCS8GEN_PASSPHRASE"

	// DefaultPassphrase is a placeholder used when no passphrase is configured.
	DefaultPassphrase = "password"
)

// Options holds the parsed command line
type Options struct {
	Bits    int
	Prompt  bool
	EnvFile string
	Verify  bool
	Verbose bool
	Inspect string

	DefaultParamsPath string
	OpenSSLParamsPath string
}

type command int

const (
	cmdGenerate command = iota
	cmdInspect
	cmdHelp
	cmdVersion
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func run(args []string) error {
	cmd, opts, err := parseArgs(args)
	if err != nil {
		if kindOf(err) == KindUsage {
			printUsage()
		}
		return err
	}

	switch cmd {
	case cmdHelp:
		printUsage()
		return nil
	case cmdVersion:
		fmt.Fprintf(os.Stderr, "pkcs8gen version %s\n", Version)
		return nil
	case cmdInspect:
		return inspect(opts.Inspect, os.Stdout)
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return newError(KindUsage, "env file", err)
		}
	}

	return generate(opts, newLogger(opts.Verbose))
}

func parseArgs(args []string) (command, Options, error) {
	opts := Options{
		Bits: DefaultKeyBits,
	}
	var positional []string

	for _, arg := range args {
		switch {
		case arg == "--help" || arg == "-h":
			return cmdHelp, opts, nil
		case arg == "--version" || arg == "-v":
			return cmdVersion, opts, nil
		case arg == "--prompt" || arg == "-p":
			opts.Prompt = true
		case arg == "--verify":
			opts.Verify = true
		case arg == "--verbose":
			opts.Verbose = true
		case strings.HasPrefix(arg, "--bits=") || strings.HasPrefix(arg, "-b="):
			val := arg[strings.Index(arg, "=")+1:]
			bits, err := strconv.Atoi(val)
			if err != nil {
				return 0, opts, newError(KindUsage, "", fmt.Errorf("invalid bits value: %w", err))
			}
			if bits < MinKeyBits {
				return 0, opts, newError(KindUsage, "", fmt.Errorf("bits must be at least %d", MinKeyBits))
			}
			opts.Bits = bits
		case strings.HasPrefix(arg, "--env-file="):
			opts.EnvFile = strings.TrimPrefix(arg, "--env-file=")
		case strings.HasPrefix(arg, "--inspect="):
			opts.Inspect = strings.TrimPrefix(arg, "--inspect=")
		case strings.HasPrefix(arg, "-") && arg != "-":
			return 0, opts, newError(KindUsage, "", fmt.Errorf("unknown option: %s", arg))
		default:
			positional = append(positional, arg)
		}
	}

	if opts.Inspect != "" {
		if len(positional) != 0 {
			return 0, opts, newError(KindUsage, "", errors.New("--inspect takes no output paths"))
		}
		return cmdInspect, opts, nil
	}

	if len(positional) != 2 {
		return 0, opts, newError(KindUsage, "", fmt.Errorf("expected 2 output paths, got %d", len(positional)))
	}
	opts.DefaultParamsPath = positional[0]
	opts.OpenSSLParamsPath = positional[1]
	return cmdGenerate, opts, nil
}

func newLogger(verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetLevel(logrus.WarnLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

func printUsage() {
	usage := `pkcs8gen - Generate an RSA key as two password-encrypted PKCS#8 files

USAGE:
    pkcs8gen [options] <path_default_params> <path_openssl_params>
    pkcs8gen --inspect=FILE

The same key is written to both paths:
    path_default_params    PBES2 with the PKCS#8 library defaults
                           (PBKDF2-HMAC-SHA256, AES-256-CBC)
    path_openssl_params    PBES2 with openssl pkcs8 -scrypt defaults
                           (scrypt N=16384 r=8 p=1, AES-256-CBC)

OPTIONS:
    --bits=N, -b=N       RSA key size (default: 4096, minimum: 2048)
    --prompt, -p         Read the passphrase from the terminal
    --env-file=PATH      Load environment variables from a dotenv file
    --verify             Decrypt both files after writing and compare keys
    --inspect=FILE       Print the encryption parameters of FILE as JSON
    --verbose            Log progress to stderr
    --help, -h           Show this help message
    --version, -v        Show version information

PASSPHRASE:
    With --prompt, entered interactively. Otherwise the PKCS8GEN_PASSPHRASE
    environment variable, or the placeholder "password" if it is unset.

EXAMPLES:
    # Write key.default.pem and key.openssl.pem
    pkcs8gen key.default.pem key.openssl.pem

    # Check interoperability with OpenSSL
    openssl pkey -in key.openssl.pem -passin pass:password -noout

`
	fmt.Fprint(os.Stderr, usage)
}
