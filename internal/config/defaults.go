package config

// DefaultConfigYAML is written by `aiderkit init`.
const DefaultConfigYAML = `# aiderkit configuration
#
# Precedence: flags > AIDERKIT_* environment > this file > built-in defaults.

log:
  level: info
  # auto | text | json
  format: auto

aider:
  # Executable, optionally with a launcher prefix (e.g. "uvx aider-chat").
  path: aider
  timeout: 1h
  work_dir: ""
  # KEY=value lines are passed to aider as AIDER_KEY=value.
  env_file: ""
  # Passed through as --config.
  config_file: ""
  # Validate options before every run.
  validate: true
  # Reject model names missing from the built-in catalogue.
  strict_models: false

ledger:
  path: .aiderkit/ledger.json
  # json | sqlite (empty: chosen by file extension)
  backend: ""

serve:
  addr: 127.0.0.1:8420
  # Reload the served ledger when the ledger file changes.
  watch: true
  cors_origins: []

# aider options by name; see "aiderkit args --list" for the full set.
options:
  auto_commits: false
  # model: gpt-4o
  # read_files:
  #   - CONVENTIONS.md
`
