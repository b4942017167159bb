package types

// Attributes reported to callers

// Stat describes a single file or the root directory.
type Stat struct {
	Ino    Ino      `json:"ino" yaml:"ino"`
	Mode   uint32   `json:"mode" yaml:"mode"`
	Nlink  uint32   `json:"nlink" yaml:"nlink"`
	Size   uint64   `json:"size" yaml:"size"`
	Blocks uint64   `json:"blocks" yaml:"blocks"` // 512-byte units
	Mtime  Timespec `json:"mtime" yaml:"mtime"`
}

// Statfs describes the whole volume.
type Statfs struct {
	Bsize   uint32 `json:"bsize" yaml:"bsize"`
	Frsize  uint32 `json:"frsize" yaml:"frsize"`
	Blocks  uint64 `json:"blocks" yaml:"blocks"`
	Bfree   uint64 `json:"bfree" yaml:"bfree"`
	Bavail  uint64 `json:"bavail" yaml:"bavail"`
	Files   uint64 `json:"files" yaml:"files"`
	Ffree   uint64 `json:"ffree" yaml:"ffree"`
	Favail  uint64 `json:"favail" yaml:"favail"`
	Namemax uint32 `json:"namemax" yaml:"namemax"`
}
