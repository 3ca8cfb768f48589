package app

import (
	"github.com/vk/reportgrid/internal/registry"
	"github.com/vk/reportgrid/modules/datareader"
	"github.com/vk/reportgrid/modules/exporter"
	"github.com/vk/reportgrid/modules/file_definitions"
	"github.com/vk/reportgrid/modules/metadata"
	"github.com/vk/reportgrid/modules/referential"
	"github.com/vk/reportgrid/modules/s3"
	"github.com/vk/reportgrid/modules/socketio"
	"github.com/vk/reportgrid/modules/sqlreader"
	"github.com/vk/reportgrid/modules/svgbuilder"
)

// coreModules is the definitive list of all modules that are compiled into
// the reportgrid binary.
var coreModules = []registry.Module{
	&file_definitions.Module{},
	&metadata.Module{},
	&sqlreader.Module{},
	&datareader.Module{},
	&referential.Module{},
	&svgbuilder.Module{},
	&exporter.Module{},
	&s3.Module{},
	&socketio.Module{},
}
