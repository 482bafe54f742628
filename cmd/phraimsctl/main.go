package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"

	"github.com/nightvsknight/phraims/internal/config"
)

var socketPath = config.DefaultConfig.SocketPath

func init() {
	configPath := filepath.Join(os.Getenv("HOME"), ".config", "phraims", "config.toml")
	cfg, err := config.LoadConfig(configPath)
	if err == nil && cfg.SocketPath != "" {
		socketPath = cfg.SocketPath
	}
}

func main() {
	command := "activate"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "activate":
		// any non-empty payload raises the running instance
		sendActivation()
	case "help", "-h", "--help":
		printUsage()
	default:
		printUsage()
		os.Exit(1)
	}
}

func sendActivation() {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		log.Fatalf("Failed to connect to phraims socket: %v\nIs phraims running?", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("hey")); err != nil {
		log.Fatalf("Failed to send activation: %v", err)
	}
	log.Printf("Activated running instance")
}

func printUsage() {
	fmt.Println("phraimsctl - Control a running phraims instance")
	fmt.Println()
	fmt.Println("Usage: phraimsctl [command]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  activate    Raise the running instance's best window (default)")
	fmt.Println("  help        Show this help message")
	fmt.Println()
	fmt.Println("Socket path:", socketPath)
}
