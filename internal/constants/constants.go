package constants

const USER_AGENT = "Solo-leveling/0.1.0 (+https://github.com/zed38662/Solo-leveling)"
