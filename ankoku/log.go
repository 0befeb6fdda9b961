package ankoku

import "github.com/tliron/commonlog"

var (
	vmLog       = commonlog.GetLogger("ankoku.vm")
	gcLog       = commonlog.GetLogger("ankoku.gc")
	compilerLog = commonlog.GetLogger("ankoku.compiler")
)
