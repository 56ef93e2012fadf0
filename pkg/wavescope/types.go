package wavescope

import (
	"github.com/ghalamif/wavescope/internal/adapters/model"
	"github.com/ghalamif/wavescope/internal/app/inspector"
	"github.com/ghalamif/wavescope/internal/domain"
	"github.com/ghalamif/wavescope/internal/ports"
)

// PipelineSample is the data structure that flows from collectors into the
// series histories. It is exported so custom adapters can reference it.
type PipelineSample = domain.Sample

// Status is the severity/message pair carried by a sample.
type Status = domain.Status

// Annotation is an entry of the shared annotation list.
type Annotation = domain.Annotation

// Collector streams samples from any data source (OPC UA, simulators, etc.) into the feed.
type Collector = ports.Collector

// Observability emits metrics/logs about the feed and the inspector.
type Observability = ports.Observability

// Field is a structured log/metric field used by Observability implementations.
type Field = ports.Field

// Journal records the feed for replay after a restart.
type Journal = ports.Journal

// JournalStats exposes journal metadata for observability.
type JournalStats = ports.JournalStats

// JournalEntryID identifies a journal entry.
type JournalEntryID = ports.JournalEntryID

// Archive serves historic samples for backfill.
type Archive = ports.Archive

// SelectionSink receives every selection change of the inspector.
type SelectionSink = ports.SelectionSink

// SelectionUpdate is the raw selection change passed to a SelectionSink.
type SelectionUpdate = ports.SelectionUpdate

// DisplayFields is the text shown next to the waveform plot.
type DisplayFields = ports.DisplayFields

// SeriesModel is the in-memory series and annotation model the runtime inspects.
type SeriesModel = model.Model

// Inspector is the selection controller of a runtime.
type Inspector = inspector.Controller
