package config_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap/zapcore"

	"github.com/hamed0406/availability/internal/config"
)

var _ = Describe("Config", func() {
	BeforeEach(func() {
		os.Unsetenv("CONFIG_FILE")
		os.Unsetenv("LOG_LEVEL")
	})

	AfterEach(func() {
		os.Unsetenv("CONFIG_FILE")
		os.Unsetenv("LOG_LEVEL")
	})

	Describe("Load", func() {
		Context("with command line flags", func() {
			It("should accept the short --f spelling", func() {
				s, err := config.Load([]string{"--f", "sample.yaml", "--log", "debug"})
				Expect(err).NotTo(HaveOccurred())
				Expect(s.ConfigFile).To(Equal("sample.yaml"))
				Expect(s.Level).To(Equal(zapcore.DebugLevel))
				Expect(s.LevelFallback).To(BeFalse())
			})

			It("should accept --file and -f", func() {
				s, err := config.Load([]string{"--file=a.yaml"})
				Expect(err).NotTo(HaveOccurred())
				Expect(s.ConfigFile).To(Equal("a.yaml"))

				s, err = config.Load([]string{"-f", "b.yaml"})
				Expect(err).NotTo(HaveOccurred())
				Expect(s.ConfigFile).To(Equal("b.yaml"))
			})

			It("should fill the fixed defaults", func() {
				s, err := config.Load([]string{"--f", "x.yaml"})
				Expect(err).NotTo(HaveOccurred())
				Expect(s.Addr).To(Equal(config.DefaultAddr))
				Expect(s.LogDir).To(Equal(config.DefaultLogDir))
				Expect(s.Interval).To(Equal(config.CheckInterval))
				Expect(s.Timeout).To(Equal(config.ProbeTimeout))
				Expect(s.Level).To(Equal(zapcore.InfoLevel))
			})

			It("should reject unknown flags", func() {
				_, err := config.Load([]string{"--f", "x.yaml", "--bogus"})
				Expect(err).To(HaveOccurred())
			})

			It("should surface help requests", func() {
				_, err := config.Load([]string{"--help"})
				Expect(config.IsHelp(err)).To(BeTrue())
			})
		})

		Context("with environment variables", func() {
			BeforeEach(func() {
				os.Setenv("CONFIG_FILE", "/etc/endpoints.yaml")
				os.Setenv("LOG_LEVEL", "WARN")
			})

			It("should read CONFIG_FILE and LOG_LEVEL", func() {
				s, err := config.Load(nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(s.ConfigFile).To(Equal("/etc/endpoints.yaml"))
				Expect(s.Level).To(Equal(zapcore.WarnLevel))
			})

			It("should let flags override the environment", func() {
				s, err := config.Load([]string{"--f", "local.yaml", "--log", "error"})
				Expect(err).NotTo(HaveOccurred())
				Expect(s.ConfigFile).To(Equal("local.yaml"))
				Expect(s.Level).To(Equal(zapcore.ErrorLevel))
			})
		})

		Context("with an unknown log level", func() {
			It("should fall back to info and flag it", func() {
				s, err := config.Load([]string{"--f", "x.yaml", "--log", "chatty"})
				Expect(err).NotTo(HaveOccurred())
				Expect(s.Level).To(Equal(zapcore.InfoLevel))
				Expect(s.LevelFallback).To(BeTrue())
			})
		})

		Context("without an endpoint file", func() {
			It("should fail validation", func() {
				_, err := config.Load(nil)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("endpoint file is required"))
			})
		})
	})

	Describe("Validate", func() {
		It("should reject a zero interval", func() {
			s := &config.Settings{ConfigFile: "x.yaml", Addr: ":5000", Timeout: config.ProbeTimeout}
			Expect(s.Validate()).To(HaveOccurred())
		})

		It("should require a host:port address", func() {
			s := &config.Settings{ConfigFile: "x.yaml", Addr: "5000", Interval: config.CheckInterval, Timeout: config.ProbeTimeout}
			Expect(s.Validate()).To(HaveOccurred())

			s.Addr = "localhost:5000"
			Expect(s.Validate()).To(Succeed())
		})
	})
})
