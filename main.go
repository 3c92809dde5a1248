package main

import (
	"encoding/base64"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/umbra-proxy/go-umbra/core"
)

func main() {
	var flags struct {
		ConfigFile string
		Keygen     int
		Ciphers    bool
		Encrypt    bool
		Decrypt    bool
	}

	flag.StringVar(&flags.ConfigFile, "config", "", "TOML config file (overrides other flags)")
	flag.IntVar(&flags.Keygen, "keygen", 0, "generate a base64url-encoded random key of given length in byte")
	flag.BoolVar(&flags.Ciphers, "ciphers", false, "list supported cipher methods")
	flag.BoolVar(&flags.Encrypt, "encrypt", false, "encrypt stdin to stdout")
	flag.BoolVar(&flags.Decrypt, "decrypt", false, "decrypt stdin to stdout")
	flag.Parse()

	if flags.ConfigFile != "" {
		if err := loadConfig(flags.ConfigFile, &config); err != nil {
			logger.Error("failed to load config", "file", flags.ConfigFile, "err", err)
			os.Exit(1)
		}
	}
	initLogging(config.Verbose)

	if flags.Keygen > 0 {
		key, err := core.RandomIV(flags.Keygen)
		if err != nil {
			logger.Error("keygen failed", "err", err)
			os.Exit(1)
		}
		fmt.Println(base64.URLEncoding.EncodeToString(key))
		return
	}

	if flags.Ciphers {
		fmt.Println(strings.Join(core.SupportedMethods(), "\n"))
		return
	}

	switch {
	case flags.Encrypt:
		if err := pipe(core.Encrypt); err != nil {
			logger.Error("encrypt failed", "err", err)
			os.Exit(1)
		}
	case flags.Decrypt:
		if err := pipe(core.Decrypt); err != nil {
			logger.Error("decrypt failed", "err", err)
			os.Exit(1)
		}
	case config.Server != "": // client mode
		servers := strings.Split(config.Server, ",")
		d, err := newPriorityDialer(servers...)
		if err != nil {
			logger.Error("dialer setup failed", "err", err)
			os.Exit(1)
		}

		if config.UDP {
			addr, cipher, password, err := parseURL(servers[0])
			if err != nil {
				logger.Error("invalid server URL", "url", servers[0], "err", err)
				os.Exit(1)
			}
			ciph, err := pickCipher(cipher, password)
			if err != nil {
				logger.Error("cipher setup failed", "err", err)
				os.Exit(1)
			}
			go udpLocal(config.Listen, addr, ciph)
		}

		go tcpLocal(config.Listen, d)
		waitSignal()
	case config.Forward != "": // server mode
		addr, cipher, password, err := parseURL(config.Listen)
		if err != nil {
			logger.Error("invalid listen URL", "url", config.Listen, "err", err)
			os.Exit(1)
		}
		ciph, err := pickCipher(cipher, password)
		if err != nil {
			logger.Error("cipher setup failed", "err", err)
			os.Exit(1)
		}

		if config.UDP {
			go udpRemote(addr, config.Forward, ciph)
		}

		go tcpRemote(addr, config.Forward, ciph)
		waitSignal()
	default:
		flag.Usage()
	}
}

// pickCipher resolves method, key and password, favoring URL values over
// flags, and builds the connection cipher.
func pickCipher(urlCipher, urlPassword string) (core.ConnCipher, error) {
	method, password := config.Cipher, config.Password
	if urlCipher != "" {
		method = urlCipher
	}
	if urlPassword != "" {
		password = urlPassword
	}

	var key []byte
	if config.Key != "" {
		k, err := base64.URLEncoding.DecodeString(config.Key)
		if err != nil {
			return nil, err
		}
		key = k
	}
	return core.PickCipher(method, key, password)
}

// pipe runs stdin through a fresh cipher session and writes the result
// to stdout.
func pipe(dir core.Direction) error {
	var (
		enc *core.Encryptor
		err error
	)
	if config.Key != "" {
		var key []byte
		if key, err = base64.URLEncoding.DecodeString(config.Key); err != nil {
			return err
		}
		enc, err = core.NewEncryptorKey(config.Cipher, key)
	} else {
		enc, err = core.NewEncryptor(config.Cipher, config.Password)
	}
	if err != nil {
		return err
	}
	defer enc.Close()

	buf := make([]byte, 32*1024)
	for {
		n, er := os.Stdin.Read(buf)
		if n > 0 {
			var out []byte
			if dir == core.Encrypt {
				out, err = enc.Encrypt(buf[:n])
			} else {
				out, err = enc.Decrypt(buf[:n])
			}
			if err != nil {
				return err
			}
			if _, err = os.Stdout.Write(out); err != nil {
				return err
			}
		}
		if er != nil {
			if er == io.EOF {
				return nil
			}
			return er
		}
	}
}

func waitSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}
