package config

import (
	"fmt"

	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

// ConfigureLogging announces this instance's logging preferences through
// commonlog, the same logging facade and "simple" backend the teacher's
// LSP server imports. This module has no other commonlog call sites;
// this is the one place PURC_LOG_ENABLE/PURC_LOG_SYSLOG become visible to whatever
// commonlog backend the process wired in.
func ConfigureLogging(cfg *Config) {
	if !cfg.Log.Enable {
		return
	}
	msg := fmt.Sprintf("hvml instance logging enabled (syslog=%v, tz=%s)", cfg.Log.Syslog, cfg.Timezone)
	commonlog.NewInfoMessage(0, msg)
}
