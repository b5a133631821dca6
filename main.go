package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/logutils"
)

func main() {
	conf := flag.String("conf", "files/conf.json", "JSON configuration file name")
	storepath := flag.String("storepath", "logs", "Dataset store path")
	genULBits := flag.Bool("gen-ul-bits", false,
		"Generate random bits for uplink transmissions, otherwise read from file")
	radioKind := flag.String("radio", "sim", "Radio backend: sim or pipe")
	device := flag.String("device", "/dev/iq0", "IQ device path (pipe backend)")
	monitorPort := flag.Int("monitor", 0, "Websocket monitor port (0 disables)")
	logLevel := flag.String("loglevel", "INFO", "Minimum log level (DEBUG, INFO, WARN, ERROR)")
	flag.Parse()

	log.SetOutput(&logutils.LevelFilter{
		Levels:   []logutils.LogLevel{"DEBUG", "INFO", "WARN", "ERROR"},
		MinLevel: logutils.LogLevel(*logLevel),
		Writer:   os.Stderr,
	})

	cfg, err := NewConfig(*conf, *storepath)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}

	if *genULBits {
		if err := GenerateULData(cfg, *storepath); err != nil {
			log.Fatalf("[ERROR] %v", err)
		}
		return
	}

	if err := os.MkdirAll(*storepath, 0755); err != nil {
		log.Fatalf("[ERROR] create store path: %v", err)
	}
	if err := cfg.LoadULData(*storepath); err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	printSummary(cfg)

	// the signal handler only flips the shared run flag; every worker
	// exits cooperatively
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		s := <-sigs
		log.Printf("[INFO] received %v, shutting down", s)
		cfg.SetRunning(false)
	}()

	var backend RadioBackend
	switch *radioKind {
	case "pipe":
		pr, err := NewPipeRadio(cfg, *device)
		if err != nil {
			log.Fatalf("[ERROR] %v", err)
		}
		defer pr.Close()
		backend = pr
	default:
		backend = NewSimRadio(cfg, cfg.MaxFrame, 0)
	}

	rec, err := NewRecorder(cfg, backend, 0)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}

	if *monitorPort > 0 {
		hub := newMonitorHub()
		go hub.serve(*monitorPort)
		go hub.watch(cfg, rec)
	}

	if err := rec.DoIt(); err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	log.Printf("[INFO] done, recorded through frame %d", rec.RecordedFrameNum())
}
