package main

import (
	"bufio"
	"os"
	"strings"

	"github.com/halcyondata/enrich/core"
)

// sampleDocuments is a small built-in corpus for trying the pipeline without
// preparing a seed file.
var sampleDocuments = []*core.Document{
	{
		Title: "Lighthouse maintenance log",
		Content: "The abandoned lighthouse on Vastern Point still broadcasts its " +
			"warning signal every third Tuesday. The rotating lens assembly was " +
			"last serviced in March, when the keeper's successor replaced two " +
			"corroded bearings and realigned the mercury float. Fuel deliveries " +
			"stopped years ago; the lamp now runs from a bank of salvaged solar " +
			"panels on the gallery deck. During the autumn storms the signal " +
			"reaches ships up to nineteen nautical miles out.",
	},
	{
		Title: "Orchard irrigation notes",
		Content: "The east orchard's drip lines were flushed and re-pressurized " +
			"after the pump rebuild. Trees in rows four through nine showed leaf " +
			"curl consistent with underwatering, so emitter spacing was halved " +
			"along the slope. Soil probes at thirty centimeters now read field " +
			"capacity within six hours of a cycle. The cider varieties continue " +
			"to outdrink the dessert apples by roughly a third.",
	},
	{
		Title: "Server room incident report",
		Content: "At 3 AM the environmental monitor paged on-call about a " +
			"temperature excursion in rack row B. The intake filters on CRAC " +
			"unit two had clogged with construction dust from the hallway " +
			"renovation, dropping airflow below threshold. Workloads were " +
			"migrated off the affected rack within twenty minutes and no " +
			"hardware faults were recorded. Filters are now on a weekly " +
			"replacement schedule until the renovation ends.",
	},
	{
		Title: "Glacier survey summary",
		Content: "This season's survey of the Herring Glacier measured a " +
			"terminus retreat of forty-one meters, the largest single-year " +
			"figure in the record. Ablation stakes along the centerline lost " +
			"between two and three meters of ice. The proglacial lake has " +
			"grown enough that next year's crew will need an inflatable to " +
			"reach the old benchmark. Meltwater turbidity remained high " +
			"through August.",
	},
	{
		Title: "Community bakery opening",
		Content: "The bakery on Foundry Lane opened its doors after eight " +
			"months of renovation. The wood-fired oven, rebuilt brick by brick " +
			"from the original 1911 design, holds temperature through a full " +
			"day of baking. Opening week sold out of rye sourdough by nine " +
			"each morning. Half the staff came through the town's culinary " +
			"training program, and the flour is milled forty kilometers away.",
	},
	{
		Title: "Railway signal upgrade",
		Content: "The junction at Harwick switched from mechanical semaphores " +
			"to color-light signals over the weekend possession. Interlocking " +
			"logic was migrated to the new solid-state system and verified " +
			"against the full route table. Drivers report better sighting on " +
			"the curved approach. The last semaphore arm was donated to the " +
			"railway museum, ending a hundred and six years of service.",
	},
}

// documentsFromFile reads seed documents from a file. Documents are separated
// by blank lines; the first line of each block is the title and the remaining
// lines are the content.
func documentsFromFile(filename string) ([]*core.Document, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var docs []*core.Document
	var block []string

	flush := func() {
		if len(block) == 0 {
			return
		}
		doc := &core.Document{Title: block[0]}
		if len(block) > 1 {
			doc.Content = strings.Join(block[1:], "\n")
		}
		docs = append(docs, doc)
		block = nil
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		block = append(block, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return docs, nil
}
