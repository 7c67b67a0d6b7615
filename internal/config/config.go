// Package config loads supertag's recognized TOML options (spec.md §6) and
// derives platform defaults for anything the file leaves unset.
package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/viper"
	"golang.org/x/sys/unix"
)

// Symbols holds the configurable characters/strings the path interpreter
// (C1) and identity service (C4) use to recognize special segments.
type Symbols struct {
	InodeChar   string `mapstructure:"inode_char"`
	DeviceChar  string `mapstructure:"device_char"`
	SyncChar    string `mapstructure:"sync_char"`
	FiledirStr  string `mapstructure:"filedir_str"`
	FiledirCLI  string `mapstructure:"filedir_cli_str"`
	TagGroupStr string `mapstructure:"tag_group_str"`
}

// Mount holds the mount-time options from spec.md §6.
type Mount struct {
	BaseDir     string `mapstructure:"base_dir"`
	UID         uint32 `mapstructure:"uid"`
	GID         uint32 `mapstructure:"gid"`
	Permissions uint32 `mapstructure:"permissions"`
}

// Config is the fully resolved, typed configuration for one collection.
type Config struct {
	Symbols Symbols `mapstructure:"symbols"`
	Mount   Mount   `mapstructure:"mount"`
}

// DeleteSentinel is the rename-to-delete idiom's target name (§4.3 rename,
// §4.3.3). It is not itself a recognized TOML key; the source doesn't
// expose it as configurable, only the symbols are.
const DeleteSentinel = "delete"

// Defaults returns a Config populated with the documented defaults,
// deriving mount.base_dir/uid/gid/permissions from the invoking process the
// way spec.md §6 specifies ("OS-derived").
func Defaults() Config {
	cfg := Config{
		Symbols: Symbols{
			InodeChar:   "-",
			DeviceChar:  "﹫",
			SyncChar:    "",
			FiledirStr:  "⋂",
			FiledirCLI:  "_",
			TagGroupStr: "+",
		},
		Mount: Mount{
			BaseDir:     defaultBaseDir(),
			UID:         uint32(os.Getuid()),
			GID:         uint32(os.Getgid()),
			Permissions: defaultPermissions(),
		},
	}
	return cfg
}

func defaultBaseDir() string {
	if runtime.GOOS == "darwin" {
		return "/Volumes"
	}
	return "/mnt"
}

// defaultPermissions derives the mode bits a fresh tag directory would get
// by reading and restoring the process umask, so mount defaults come from
// the environment rather than a hardcoded constant.
func defaultPermissions() uint32 {
	mask := unix.Umask(0)
	unix.Umask(mask)
	return uint32(0777 &^ mask)
}

// Load reads a TOML configuration file at path, overlaying it onto
// Defaults(). A missing file is not an error: the collection mounts with
// pure defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	v := viper.New()
	v.SetConfigType("toml")
	setViperDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return cfg, nil
			}
			return cfg, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	var out Config
	if err := v.Unmarshal(&out); err != nil {
		return cfg, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	return out, nil
}

// ConfigRoot is the directory under which every collection's state lives
// (spec.md §6 persisted layout: "<config_dir>/<collection>/db.sqlite3").
// It is "supertag" under the OS user-config directory, or under the
// relative directory ".supertag-config" if that can't be determined.
func ConfigRoot() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = ".supertag-config"
	}
	return dir + string(os.PathSeparator) + "supertag"
}

// CollectionDB returns the sqlite3 path for a named collection under root.
func CollectionDB(root, collection string) string {
	return root + string(os.PathSeparator) + collection + string(os.PathSeparator) + "db.sqlite3"
}

func setViperDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("symbols.inode_char", cfg.Symbols.InodeChar)
	v.SetDefault("symbols.device_char", cfg.Symbols.DeviceChar)
	v.SetDefault("symbols.sync_char", cfg.Symbols.SyncChar)
	v.SetDefault("symbols.filedir_str", cfg.Symbols.FiledirStr)
	v.SetDefault("symbols.filedir_cli_str", cfg.Symbols.FiledirCLI)
	v.SetDefault("symbols.tag_group_str", cfg.Symbols.TagGroupStr)
	v.SetDefault("mount.base_dir", cfg.Mount.BaseDir)
	v.SetDefault("mount.uid", cfg.Mount.UID)
	v.SetDefault("mount.gid", cfg.Mount.GID)
	v.SetDefault("mount.permissions", cfg.Mount.Permissions)
}
