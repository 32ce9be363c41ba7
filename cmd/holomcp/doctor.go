package main

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"github.com/BurntSushi/toml"

	holomcp "github.com/holodb/holo-mcp"
)

func runDoctor() error {
	useColor := isTTY(os.Stderr.Fd())
	return doctor(os.Stderr, useColor)
}

func doctor(w io.Writer, useColor bool) error {
	printBanner(w, useColor)
	fmt.Fprintf(w, "holomcp %s\n\n", version)

	envOK := doctorValidateEnv(w, useColor)
	configOK := doctorValidateConfig(w, useColor)

	if !envOK || !configOK {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Fix the issues above and run 'holomcp doctor' again.")
		return nil
	}

	fmt.Fprintln(w)
	printAgentSnippets(w, useColor)
	return nil
}

// doctorValidateEnv checks the HOLOGRES_* environment variables, printing
// check results. Returns true if all checks passed.
func doctorValidateEnv(w io.Writer, useColor bool) bool {
	allPassed := true

	if os.Getenv("HOLOGRES_USER") == "" {
		printCheck(w, useColor, false, "HOLOGRES_USER is set")
		allPassed = false
	} else {
		printCheck(w, useColor, true, fmt.Sprintf("HOLOGRES_USER is set (%s)", os.Getenv("HOLOGRES_USER")))
	}

	if os.Getenv("HOLOGRES_DATABASE") == "" {
		printCheck(w, useColor, false, "HOLOGRES_DATABASE is set")
		allPassed = false
	} else {
		printCheck(w, useColor, true, fmt.Sprintf("HOLOGRES_DATABASE is set (%s)", os.Getenv("HOLOGRES_DATABASE")))
	}

	if os.Getenv("HOLOGRES_PASSWORD") == "" {
		printCheck(w, useColor, false, "HOLOGRES_PASSWORD is set (will prompt interactively if run from a terminal)")
		allPassed = false
	} else {
		printCheck(w, useColor, true, "HOLOGRES_PASSWORD is set")
	}

	if port := os.Getenv("HOLOGRES_PORT"); port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			printCheck(w, useColor, false, fmt.Sprintf("HOLOGRES_PORT is numeric (%s)", port))
			allPassed = false
		} else {
			printCheck(w, useColor, true, fmt.Sprintf("HOLOGRES_PORT is numeric (%s)", port))
		}
	}

	return allPassed
}

// doctorValidateConfig loads and validates the optional TOML config file,
// printing check results. Returns true if all checks passed.
func doctorValidateConfig(w io.Writer, useColor bool) bool {
	configPath := os.Getenv("HOLOMCP_CONFIG_PATH")
	if configPath == "" {
		printCheck(w, useColor, true, "HOLOMCP_CONFIG_PATH not set, using built-in defaults")
		return true
	}

	allPassed := true

	config := holomcp.ServerConfig{Config: holomcp.DefaultConfig()}
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		printCheck(w, useColor, false, fmt.Sprintf("Config file is valid TOML (%s): %v", configPath, err))
		return false
	}
	printCheck(w, useColor, true, fmt.Sprintf("Config file is valid TOML (%s)", configPath))

	if config.Server.Transport == "http" && config.Server.Port <= 0 {
		printCheck(w, useColor, false, "server.port is > 0 (required for http transport)")
		allPassed = false
	} else if config.Server.Transport == "http" {
		printCheck(w, useColor, true, fmt.Sprintf("server.port is > 0 (%d)", config.Server.Port))
	}

	regexOK := true
	for i, rule := range config.Query.TimeoutRules {
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			printCheck(w, useColor, false, fmt.Sprintf("timeout_rules[%d] regex compiles: %v", i, err))
			regexOK = false
			allPassed = false
		}
	}
	if regexOK {
		printCheck(w, useColor, true, "All timeout rule patterns compile")
	}

	return allPassed
}

// printCheck prints a colored ✓ or ✗ check line.
func printCheck(w io.Writer, useColor bool, pass bool, msg string) {
	if pass {
		if useColor {
			fmt.Fprintf(w, "  \033[32m✓\033[0m %s\n", msg)
		} else {
			fmt.Fprintf(w, "  ✓ %s\n", msg)
		}
	} else {
		if useColor {
			fmt.Fprintf(w, "  \033[31m✗\033[0m %s\n", msg)
		} else {
			fmt.Fprintf(w, "  ✗ %s\n", msg)
		}
	}
}

// printAgentSnippets prints MCP connection config snippets for various AI agents.
func printAgentSnippets(w io.Writer, useColor bool) {
	heading := func(title string) {
		if useColor {
			fmt.Fprintf(w, "\033[1;36m%s\033[0m\n", title)
		} else {
			fmt.Fprintln(w, title)
		}
	}

	subheading := func(title string) {
		if useColor {
			fmt.Fprintf(w, "  \033[1m%s\033[0m\n", title)
		} else {
			fmt.Fprintf(w, "  %s\n", title)
		}
	}

	heading("Agent Connection Snippets")
	fmt.Fprintln(w)

	// Claude Code
	subheading("Claude Code")
	fmt.Fprintf(w, "  Add to .mcp.json (project scope):\n\n")
	fmt.Fprint(w, `  {
    "mcpServers": {
      "hologres": {
        "command": "holomcp",
        "args": ["serve"],
        "env": {
          "HOLOGRES_HOST": "your-endpoint",
          "HOLOGRES_PORT": "5432",
          "HOLOGRES_USER": "your-user",
          "HOLOGRES_PASSWORD": "your-password",
          "HOLOGRES_DATABASE": "your-database"
        }
      }
    }
  }
`)
	fmt.Fprintln(w)

	// Cursor
	subheading("Cursor (.cursor/mcp.json)")
	fmt.Fprint(w, `  {
    "mcpServers": {
      "hologres": {
        "command": "holomcp",
        "args": ["serve"]
      }
    }
  }
`)
	fmt.Fprintln(w)

	// Windsurf
	subheading("Windsurf (~/.codeium/windsurf/mcp_config.json)")
	fmt.Fprint(w, `  {
    "mcpServers": {
      "hologres": {
        "command": "holomcp",
        "args": ["serve"]
      }
    }
  }
`)
}
