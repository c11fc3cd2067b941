package configs

// AppVersion is overridden at build time with
// -ldflags "-X github.com/yeisme/filevault/pkg/configs.AppVersion=...".
var AppVersion = "0.1.0"
