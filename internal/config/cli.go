package config

import "github.com/alecthomas/kong"

// Cli holds the command line of the trpx tool.
type Cli struct {
	Version kong.VersionFlag

	LogLevel   string `kong:"name=log-level,env=LOG_LEVEL,default=info,help='Set log level.'"`
	LogJSON    bool   `kong:"name=log-json,env=LOG_JSON,default=false,help='Enable JSON logging output.'"`
	LogCaller  bool   `kong:"name=log-caller,env=LOG_CALLER,default=false,help='Add file:line of the caller to log output.'"`
	LogNoColor bool   `kong:"name=log-nocolor,env=LOG_NOCOLOR,default=false,help='Disable colorized output.'"`

	Pack   PackCmd   `kong:"cmd,help='Compress a raw little-endian integer file into a Terse stream.'"`
	Unpack UnpackCmd `kong:"cmd,help='Decompress a Terse stream into raw little-endian integers.'"`
	Info   InfoCmd   `kong:"cmd,help='Print the metadata of a Terse stream.'"`
}

// PackCmd compresses raw data.
type PackCmd struct {
	Dtype  string `kong:"name=dtype,required,enum='u8,u16,u32,u64,i8,i16,i32,i64',help='Element type of the raw input.'"`
	Dims   []int  `kong:"name=dims,help='Frame dimensions, e.g. --dims=512,512.'"`
	Values int    `kong:"name=values,help='Values per frame when no dimensions are given.'"`
	Block  int    `kong:"name=block,default=12,help='Number of values sharing one encoded bit width.'"`

	Source string `kong:"arg,required,name=source,type=path,help='Raw input file.'"`
	Dest   string `kong:"arg,required,name=dest,type=path,help='Terse output file.'"`
}

// UnpackCmd decompresses a Terse stream.
type UnpackCmd struct {
	Dtype string `kong:"name=dtype,help='Element type of the raw output. Defaults to the smallest type that holds the stream.'"`

	Source string `kong:"arg,required,name=source,type=path,help='Terse input file.'"`
	Dest   string `kong:"arg,required,name=dest,type=path,help='Raw output file.'"`
}

// InfoCmd prints stream metadata.
type InfoCmd struct {
	Source string `kong:"arg,required,name=source,type=path,help='Terse input file.'"`
}
