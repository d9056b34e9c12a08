package importer

type errNoRecordsFound string

func (e errNoRecordsFound) Error() string {
	return "no configured records path found in payload, first expected: " + string(e)
}

type errBadTimestamp string

func (e errBadTimestamp) Error() string {
	return "unparsable timestamp in record: " + string(e)
}
