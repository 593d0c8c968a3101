package record

import "github.com/sirupsen/logrus"

var _lg = logrus.New()

// SetLogger replaces the package-wide logger used for non-fatal diagnostics
// (currently only the warning when Dumps overwrites a DE<container> value
// with PDS-encoded subfields).
func SetLogger(lg *logrus.Logger) {
	_lg = lg
}

// Logger returns the currently configured package-wide logger.
func Logger() *logrus.Logger {
	return _lg
}
