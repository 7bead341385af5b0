package main

import (
	"os"
	"reflect"
	"strings"

	musgen "github.com/mus-format/musgen-go/mus"
	genops "github.com/mus-format/musgen-go/options/generate"
	structops "github.com/mus-format/musgen-go/options/struct"
	typeops "github.com/mus-format/musgen-go/options/type"
	"github.com/poiesic/syllabus/core"
)

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	// go generate runs us from core; write relative to the module root
	if strings.HasSuffix(cwd, "core") {
		if err := os.Chdir(".."); err != nil {
			panic(err)
		}
	}
	g, err := musgen.NewCodeGenerator(
		genops.WithPkgPath("github.com/poiesic/syllabus/core"),
	)
	if err != nil {
		panic(err)
	}

	g.AddDefinedType(reflect.TypeFor[core.ID]())
	g.AddDefinedType(reflect.TypeFor[core.JobStatus]())
	g.AddDefinedType(reflect.TypeFor[core.ContentType]())

	// Unix micro timestamps, always decoded as UTC
	ts := typeops.WithTimeUnit(typeops.MicroUTC)

	err = g.AddStruct(reflect.TypeFor[core.ErrorEntry](),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(ts))
	if err != nil {
		panic(err)
	}

	err = g.AddStruct(reflect.TypeFor[core.SubtopicSpec](),
		structops.WithField(),
		structops.WithField())
	if err != nil {
		panic(err)
	}

	err = g.AddStruct(reflect.TypeFor[core.SectionSpec](),
		structops.WithField(),
		structops.WithField(),
		structops.WithField())
	if err != nil {
		panic(err)
	}

	err = g.AddStruct(reflect.TypeFor[core.SectionOverride](),
		structops.WithField(),
		structops.WithField(),
		structops.WithField())
	if err != nil {
		panic(err)
	}

	err = g.AddStruct(reflect.TypeFor[core.GenerationRequest](),
		structops.WithField(), // CourseID
		structops.WithField(), // RoadmapID
		structops.WithField(), // SessionID
		structops.WithField(), // Title
		structops.WithField(), // Description
		structops.WithField(), // Sections
		structops.WithField()) // Overrides
	if err != nil {
		panic(err)
	}

	err = g.AddStruct(reflect.TypeFor[core.SubtopicResult](),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField())
	if err != nil {
		panic(err)
	}

	err = g.AddStruct(reflect.TypeFor[core.SectionResult](),
		structops.WithField(),
		structops.WithField(),
		structops.WithField())
	if err != nil {
		panic(err)
	}

	err = g.AddStruct(reflect.TypeFor[core.CourseStructure](),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(ts))
	if err != nil {
		panic(err)
	}

	err = g.AddStruct(reflect.TypeFor[core.GenerationJob](),
		structops.WithField(), // ID
		structops.WithField(), // CourseID
		structops.WithField(), // RoadmapID
		structops.WithField(), // SessionID
		structops.WithField(), // Status
		structops.WithField(), // CurrentStep
		structops.WithField(), // ProgressPercentage
		structops.WithField(), // CurrentSectionIndex
		structops.WithField(), // CurrentSubtopicIndex
		structops.WithField(), // TotalSections
		structops.WithField(), // TotalSubtopics
		structops.WithField(), // EstimatedMinutesRemaining
		structops.WithField(), // ErrorLog
		structops.WithField(), // RetryCount
		structops.WithField(), // MaxRetries
		structops.WithField(), // FinalPayload
		structops.WithField(ts),
		structops.WithField(ts),
		structops.WithField(ts),
		structops.WithField(ts))
	if err != nil {
		panic(err)
	}

	err = g.AddStruct(reflect.TypeFor[core.VectorEmbedding](),
		structops.WithField(), // ID
		structops.WithField(), // CourseID
		structops.WithField(), // ContentID
		structops.WithField(), // ContentType
		structops.WithField(), // ContentText
		structops.WithField(), // ContentHash
		structops.WithField(), // Vector
		structops.WithField(), // Title
		structops.WithField(), // Description
		structops.WithField(), // Metadata
		structops.WithField(), // IsActive
		structops.WithField(ts),
		structops.WithField(ts))
	if err != nil {
		panic(err)
	}

	bs, err := g.Generate()
	if err != nil {
		panic(err)
	}

	err = os.WriteFile("./core/records_mus.gen.go", bs, 0644)
	if err != nil {
		panic(err)
	}
}
