package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// I/O
	IOInfo          Code = 1000
	IOLoadFileError Code = 1001
	IOWriteError    Code = 1002

	// Конфигурация (tsconfig.json, dtsbundle.toml)
	CfgInfo                Code = 2000
	CfgTsconfigParse       Code = 2001
	CfgTsconfigExtends     Code = 2002
	CfgTsconfigNotFound    Code = 2003
	CfgBadPathsPattern     Code = 2004
	CfgManifestParse       Code = 2005
	CfgManifestNoTargets   Code = 2006
	CfgManifestBadTarget   Code = 2007
	CfgRootDirsUnsupported Code = 2008

	// Резолюция модулей
	ResInfo             Code = 3000
	ResNotFound         Code = 3001
	ResUnresolvedImport Code = 3002
	ResSessionSealed    Code = 3003
	ResDuplicateRoot    Code = 3004
	ResEntryNotFound    Code = 3005

	// Генерация деклараций
	GenInfo                     Code = 4000
	GenMissingReturnType        Code = 4001
	GenMissingParamType         Code = 4002
	GenMissingVarType           Code = 4003
	GenUnsupportedDefaultExport Code = 4004
	GenUnbalancedBraces         Code = 4005
	GenInvalidJSON              Code = 4006
	GenEmitBlocked              Code = 4007
)

var codeDescription = map[Code]string{
	UnknownCode: "unknown error",

	IOInfo:          "I/O information",
	IOLoadFileError: "I/O load file error",
	IOWriteError:    "I/O write error",

	CfgInfo:                "configuration information",
	CfgTsconfigParse:       "failed to parse tsconfig.json",
	CfgTsconfigExtends:     "failed to resolve tsconfig extends chain",
	CfgTsconfigNotFound:    "tsconfig.json not found",
	CfgBadPathsPattern:     "invalid paths pattern in tsconfig",
	CfgManifestParse:       "failed to parse dtsbundle.toml",
	CfgManifestNoTargets:   "manifest declares no targets",
	CfgManifestBadTarget:   "invalid target in dtsbundle.toml",
	CfgRootDirsUnsupported: "rootDirs is parsed but not used for resolution",

	ResInfo:             "resolution information",
	ResNotFound:         "file not found on disk",
	ResUnresolvedImport: "import specifier did not resolve",
	ResSessionSealed:    "entry registration after resolution started",
	ResDuplicateRoot:    "compilation unit root already exists",
	ResEntryNotFound:    "entry point not found",

	GenInfo:                     "declaration generation information",
	GenMissingReturnType:        "exported function needs an explicit return type annotation",
	GenMissingParamType:         "exported function parameter needs a type annotation",
	GenMissingVarType:           "exported variable needs a type annotation or literal initializer",
	GenUnsupportedDefaultExport: "default export expression cannot be declared without a type annotation",
	GenUnbalancedBraces:         "unbalanced braces in source file",
	GenInvalidJSON:              "JSON module failed to parse",
	GenEmitBlocked:              "declaration emission blocked by earlier errors",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("RES%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("GEN%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
